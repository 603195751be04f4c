package db

import (
	"errors"

	"github.com/wx-shi/shadow-ledger/internal/model"
	"github.com/wx-shi/shadow-ledger/pkg"
)

const (
	StoreHeight             = "s:h"
	addressBalanceKeyPrefix = "ab:"
	defectKeyPrefix         = "d:"
)

var ErrCorruptRecord = errors.New("db: corrupt record")

// Delta is the change one batch of blocks makes to an address.
type Delta struct {
	Value       uint64
	RewardCount uint64
}

// Store persists the per-address projection together with the height it reflects.
type Store interface {
	GetStoreHeight() (int64, error)
	GetBalance(address string) (*model.AddressBalance, error)
	// Store applies deltas and defects and advances the store height atomically.
	Store(deltas map[string]Delta, defects []model.ScanDefect, lastHeight int64) error
	GetDefects() ([]model.ScanDefect, error)
	Close() error
}

func balanceKey(address string) []byte {
	return []byte(addressBalanceKeyPrefix + address)
}

// defectKey sorts by height, then tx index with the whole-block entry first.
func defectKey(d model.ScanDefect) []byte {
	return append(pkg.HeightKey(defectKeyPrefix, d.Height), pkg.Int64ToBytes(int64(d.TxIndex)+1)...)
}

func addDelta(cur *model.AddressBalance, d Delta) {
	cur.Value += d.Value
	cur.RewardCount += d.RewardCount
}
