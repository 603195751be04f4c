package db

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/wx-shi/shadow-ledger/internal/config"
	"github.com/wx-shi/shadow-ledger/internal/model"
	"github.com/wx-shi/shadow-ledger/pkg"
	"go.uber.org/zap"
)

// BadgerDB is a wrapper around the badger.DB instance.
type BadgerDB struct {
	*badger.DB
	logger *zap.Logger
}

// NewBadgerDB creates a new BadgerDB instance.
func NewBadgerDB(conf *config.BadgerDBConfig, logger *zap.Logger) (*BadgerDB, error) {
	db, err := badger.Open(DefaultBadgerOptions(conf))
	if err != nil {
		return nil, err
	}

	return &BadgerDB{
		DB:     db,
		logger: logger,
	}, nil
}

func (db *BadgerDB) GetStoreHeight() (int64, error) {
	var height int64
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(StoreHeight))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		height = pkg.BytesToInt64(val)
		return nil
	})
	return height, err
}

func (db *BadgerDB) GetBalance(address string) (*model.AddressBalance, error) {
	var bal *model.AddressBalance
	err := db.View(func(txn *badger.Txn) error {
		var err error
		bal, err = getBalance(txn, address)
		return err
	})
	return bal, err
}

func getBalance(txn *badger.Txn, address string) (*model.AddressBalance, error) {
	item, err := txn.Get(balanceKey(address))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return &model.AddressBalance{Address: address}, nil
		}
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return decodeBalance(address, val)
}

// Store 存储
func (db *BadgerDB) Store(deltas map[string]Delta, defects []model.ScanDefect, lastHeight int64) error {
	start := time.Now()

	// balances are additive, so they must commit together with the height
	err := db.Update(func(txn *badger.Txn) error {
		for addr, d := range deltas {
			cur, err := getBalance(txn, addr)
			if err != nil {
				return err
			}
			addDelta(cur, d)
			if err := txn.Set(balanceKey(addr), encodeBalance(cur)); err != nil {
				return err
			}
		}
		for _, d := range defects {
			if err := txn.Set(defectKey(d), encodeDefect(d)); err != nil {
				return err
			}
		}
		return txn.Set([]byte(StoreHeight), pkg.Int64ToBytes(lastHeight))
	})
	if err != nil {
		return err
	}

	db.logger.Info("Store::Info",
		zap.Int64("lastHeight", lastHeight),
		zap.Int("address_len", len(deltas)),
		zap.Int("defect_len", len(defects)),
		zap.Duration("ttl", time.Since(start)))
	return nil
}

func (db *BadgerDB) GetDefects() ([]model.ScanDefect, error) {
	defects := make([]model.ScanDefect, 0)
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(defectKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			d, err := decodeDefect(val)
			if err != nil {
				return err
			}
			defects = append(defects, d)
		}
		return nil
	})
	return defects, err
}

// GC reclaims value log space until ctx is done.
func (db *BadgerDB) GC(ctx context.Context) {
	if db.Opts().InMemory {
		return
	}
	go func() {
		ticker := time.NewTicker(defaultGCInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := db.RunValueLogGC(defaultGCDiscardRatio)
				if err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
					db.logger.Error("RunValueLogGC", zap.Error(err))
				}
			}
		}
	}()
}
