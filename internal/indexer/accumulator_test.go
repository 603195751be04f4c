package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wx-shi/shadow-ledger/internal/db"
	"github.com/wx-shi/shadow-ledger/internal/model"
)

func TestFoldBlockCountsOncePerTransaction(t *testing.T) {
	block := &model.Block{Height: 7, Txs: []string{
		coinbase(t, alice, pay(alice, 10), pay(alice, 20), pay(bob, 99), pay(alice, 30)),
	}}

	deltas, defects := FoldBlock(block, nil)
	assert.Empty(t, defects)
	assert.Equal(t, db.Delta{Value: 60, RewardCount: 1}, deltas[alice])
	_, ok := deltas[bob]
	assert.False(t, ok, "outputs to other addresses never count")
}

func TestFoldBlockIgnoresNonQualifying(t *testing.T) {
	block := &model.Block{Height: 1, Txs: []string{
		signedTx(t, "ML-DSA-87", alice, pay(alice, 500)),
		coinbase(t, bob, pay(alice, 700)),
		coinbase(t, alice, pay(bob, 1)),
	}}

	deltas, defects := FoldBlock(block, func(signer string) bool { return signer == alice })
	assert.Empty(t, defects)
	assert.Empty(t, deltas)
}

func TestFoldBlockSkipsCorruptTransaction(t *testing.T) {
	block := &model.Block{Height: 3, Txs: []string{
		coinbase(t, alice, pay(alice, 1)),
		coinbase(t, alice, pay(alice, 2)),
		corruptTx,
		coinbase(t, alice, pay(alice, 4)),
	}}

	deltas, defects := FoldBlock(block, nil)
	assert.Equal(t, db.Delta{Value: 7, RewardCount: 3}, deltas[alice])
	require.Len(t, defects, 1)
	assert.Equal(t, int64(3), defects[0].Height)
	assert.Equal(t, 2, defects[0].TxIndex)
	assert.Equal(t, model.DefectMalformed, defects[0].Kind)
}

func TestFoldBlockEmpty(t *testing.T) {
	deltas, defects := FoldBlock(&model.Block{Height: 1}, nil)
	assert.Empty(t, deltas)
	assert.Empty(t, defects)
}
