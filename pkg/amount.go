package pkg

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// UnitDecimals is the number of fractional digits of the display unit.
	UnitDecimals = 8
	// SatoshisPerUnit smallest units make one display unit.
	SatoshisPerUnit = 100000000
)

// ToUnit converts smallest units to the display unit.
func ToUnit(satoshis uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(satoshis), -UnitDecimals)
}

// FormatUnit renders smallest units with exactly 8 fractional digits.
func FormatUnit(satoshis uint64) string {
	return ToUnit(satoshis).StringFixed(UnitDecimals)
}

// UnitFloat is the display value as a JSON-friendly float.
func UnitFloat(satoshis uint64) float64 {
	return ToUnit(satoshis).InexactFloat64()
}

// ParseUnit converts a display amount such as "12.5" to smallest units.
func ParseUnit(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", s)
	}
	scaled := d.Shift(UnitDecimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimals", s, UnitDecimals)
	}
	if !scaled.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %s out of range", s)
	}
	return scaled.BigInt().Uint64(), nil
}
