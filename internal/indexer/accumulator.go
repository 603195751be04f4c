package indexer

import (
	"github.com/wx-shi/shadow-ledger/internal/db"
	"github.com/wx-shi/shadow-ledger/internal/model"
	"github.com/wx-shi/shadow-ledger/internal/txcodec"
)

// blockFold is what one height contributes.
type blockFold struct {
	height    int64
	deltas    map[string]db.Delta
	defects   []model.ScanDefect
	cancelled bool
}

// FoldBlock folds the coinbase rewards of one block.
//
// A transaction qualifies for signer S when it is a coinbase signed by S and
// at least one of its outputs pays S. Every output paying S is summed, but the
// reward count grows once per qualifying transaction. match limits which
// signers are folded at all; nil folds every signer.
//
// A transaction that cannot be decoded is reported as a defect and skipped;
// the rest of the block still counts.
func FoldBlock(block *model.Block, match func(signer string) bool) (map[string]db.Delta, []model.ScanDefect) {
	deltas := make(map[string]db.Delta)
	var defects []model.ScanDefect

	for i, encoded := range block.Txs {
		signed, err := txcodec.DecodeSigned([]byte(encoded))
		if err != nil {
			defects = append(defects, malformed(block.Height, i, err))
			continue
		}
		if !signed.IsCoinbase() || (match != nil && !match(signed.SignerKey)) {
			continue
		}

		inner, err := txcodec.DecodeInner([]byte(signed.Transaction))
		if err != nil {
			defects = append(defects, malformed(block.Height, i, err))
			continue
		}

		var (
			sum     uint64
			matched bool
		)
		for _, out := range inner.Outputs {
			if out.Address == signed.SignerKey {
				sum += out.Value
				matched = true
			}
		}
		if !matched {
			continue
		}
		d := deltas[signed.SignerKey]
		d.Value += sum
		d.RewardCount++
		deltas[signed.SignerKey] = d
	}
	return deltas, defects
}

func malformed(height int64, txIndex int, err error) model.ScanDefect {
	return model.ScanDefect{
		Height:  height,
		TxIndex: txIndex,
		Kind:    model.DefectMalformed,
		Message: err.Error(),
	}
}
