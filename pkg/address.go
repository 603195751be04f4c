package pkg

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// AddressLength is "S" followed by the hex of version, hash160 and checksum.
	AddressLength = 51
	AddressPrefix = "S"
)

var ErrInvalidAddress = errors.New("invalid address")

// IsValidAddress checks the address shape only; no checksum, no network.
func IsValidAddress(address string) bool {
	return len(address) == AddressLength && strings.HasPrefix(address, AddressPrefix)
}

// ValidateAddress 校验地址格式
func ValidateAddress(address string) error {
	if !IsValidAddress(address) {
		return fmt.Errorf("%w: %q (expected %d chars starting with %s)",
			ErrInvalidAddress, address, AddressLength, AddressPrefix)
	}
	return nil
}
