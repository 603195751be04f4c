package db

import (
	"time"

	tmdb "github.com/cosmos/cosmos-db"
	"github.com/wx-shi/shadow-ledger/internal/config"
	"github.com/wx-shi/shadow-ledger/internal/model"
	"github.com/wx-shi/shadow-ledger/pkg"
	"go.uber.org/zap"
)

// DB keeps the projection in any cosmos-db backend (goleveldb, memdb, ...).
type DB struct {
	pdb    tmdb.DB
	logger *zap.Logger
}

func NewDB(conf *config.DBConfig, logger *zap.Logger) (*DB, error) {
	pdb, err := tmdb.NewDB(conf.Name, tmdb.BackendType(conf.DBType), conf.Dir)
	if err != nil {
		return nil, err
	}
	return NewDBWith(pdb, logger), nil
}

// NewDBWith wraps an already opened backend.
func NewDBWith(pdb tmdb.DB, logger *zap.Logger) *DB {
	return &DB{
		pdb:    pdb,
		logger: logger,
	}
}

func (db *DB) Close() error {
	return db.pdb.Close()
}

func (db *DB) GetStoreHeight() (int64, error) {
	val, err := db.pdb.Get([]byte(StoreHeight))
	if err != nil {
		return 0, err
	}
	if len(val) == 0 {
		return 0, nil
	}
	return pkg.BytesToInt64(val), nil
}

func (db *DB) GetBalance(address string) (*model.AddressBalance, error) {
	val, err := db.pdb.Get(balanceKey(address))
	if err != nil {
		return nil, err
	}
	if len(val) == 0 {
		return &model.AddressBalance{Address: address}, nil
	}
	return decodeBalance(address, val)
}

// Store 存储
func (db *DB) Store(deltas map[string]Delta, defects []model.ScanDefect, lastHeight int64) error {
	start := time.Now()

	wb := db.pdb.NewBatch()
	defer wb.Close()

	for addr, d := range deltas {
		cur, err := db.GetBalance(addr)
		if err != nil {
			return err
		}
		addDelta(cur, d)
		if err := wb.Set(balanceKey(addr), encodeBalance(cur)); err != nil {
			return err
		}
	}
	for _, d := range defects {
		if err := wb.Set(defectKey(d), encodeDefect(d)); err != nil {
			return err
		}
	}
	if err := wb.Set([]byte(StoreHeight), pkg.Int64ToBytes(lastHeight)); err != nil {
		return err
	}
	// 提交WriteBatch，将数据写入数据库
	if err := wb.WriteSync(); err != nil {
		return err
	}

	db.logger.Info("Store::Info",
		zap.Int64("lastHeight", lastHeight),
		zap.Int("address_len", len(deltas)),
		zap.Int("defect_len", len(defects)),
		zap.Duration("ttl", time.Since(start)))
	return nil
}

func (db *DB) GetDefects() ([]model.ScanDefect, error) {
	start := []byte(defectKeyPrefix)
	it, err := db.pdb.Iterator(start, prefixEnd(start))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	defects := make([]model.ScanDefect, 0)
	for ; it.Valid(); it.Next() {
		d, err := decodeDefect(it.Value())
		if err != nil {
			return nil, err
		}
		defects = append(defects, d)
	}
	return defects, it.Error()
}

func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
