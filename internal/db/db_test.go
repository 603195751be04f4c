package db

import (
	"testing"

	tmdb "github.com/cosmos/cosmos-db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wx-shi/shadow-ledger/internal/config"
	"github.com/wx-shi/shadow-ledger/internal/model"
	"go.uber.org/zap"
)

const (
	addrA = "Saaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrB = "Sbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	bdb, err := NewBadgerDB(&config.BadgerDBConfig{InMemory: true}, zap.NewNop())
	require.NoError(t, err)

	all := map[string]Store{
		"badger": bdb,
		"cosmos": NewDBWith(tmdb.NewMemDB(), zap.NewNop()),
	}
	t.Cleanup(func() {
		for _, s := range all {
			s.Close()
		}
	})
	return all
}

func TestStoreAccumulates(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			h, err := s.GetStoreHeight()
			require.NoError(t, err)
			assert.Zero(t, h)

			bal, err := s.GetBalance(addrA)
			require.NoError(t, err)
			assert.Equal(t, &model.AddressBalance{Address: addrA}, bal)

			require.NoError(t, s.Store(map[string]Delta{
				addrA: {Value: 100, RewardCount: 1},
				addrB: {Value: 7, RewardCount: 1},
			}, nil, 10))
			require.NoError(t, s.Store(map[string]Delta{
				addrA: {Value: 50, RewardCount: 2},
			}, nil, 20))

			h, err = s.GetStoreHeight()
			require.NoError(t, err)
			assert.Equal(t, int64(20), h)

			bal, err = s.GetBalance(addrA)
			require.NoError(t, err)
			assert.Equal(t, uint64(150), bal.Value)
			assert.Equal(t, uint64(3), bal.RewardCount)

			bal, err = s.GetBalance(addrB)
			require.NoError(t, err)
			assert.Equal(t, uint64(7), bal.Value)
		})
	}
}

func TestStoreDefectsOrdered(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Store(nil, []model.ScanDefect{
				{Height: 300, TxIndex: 2, Kind: model.DefectMalformed, Message: "json"},
				{Height: 4, TxIndex: -1, Kind: model.DefectUnavailable, Message: "timeout"},
			}, 300))
			require.NoError(t, s.Store(nil, []model.ScanDefect{
				{Height: 300, TxIndex: -1, Kind: model.DefectNotFound},
			}, 301))

			defects, err := s.GetDefects()
			require.NoError(t, err)
			require.Len(t, defects, 3)
			assert.Equal(t, int64(4), defects[0].Height)
			assert.Equal(t, -1, defects[0].TxIndex)
			assert.Equal(t, "timeout", defects[0].Message)
			assert.Equal(t, int64(300), defects[1].Height)
			assert.Equal(t, -1, defects[1].TxIndex)
			assert.Equal(t, 2, defects[2].TxIndex)
			assert.Equal(t, model.DefectMalformed, defects[2].Kind)
		})
	}
}

func TestDecodeCorruptBalance(t *testing.T) {
	_, err := decodeBalance(addrA, []byte{0x08})
	assert.ErrorIs(t, err, ErrCorruptRecord)

	bal, err := decodeBalance(addrA, encodeBalance(&model.AddressBalance{Value: 1 << 40, RewardCount: 9}))
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40), bal.Value)
	assert.Equal(t, uint64(9), bal.RewardCount)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("d;"), prefixEnd([]byte("d:")))
	assert.Equal(t, []byte{0x01}, prefixEnd([]byte{0x00, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff}))
}
