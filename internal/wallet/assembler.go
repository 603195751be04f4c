package wallet

import (
	"time"

	"github.com/wx-shi/shadow-ledger/internal/model"
)

const (
	recordVersion = 1
	finalSequence = 0xffffffff
)

// Assemble turns a plan into the unsigned record. A token transfer is only
// described when tokenID is set; native sends carry no token ops.
func Assemble(plan *model.SpendPlan, sender, tokenID string, now time.Time) *model.TxRecord {
	rec := &model.TxRecord{
		Version:   recordVersion,
		Inputs:    make([]model.Input, 0, len(plan.Selected)),
		Outputs:   []model.Output{plan.Recipient},
		Locktime:  0,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	for _, c := range plan.Selected {
		rec.Inputs = append(rec.Inputs, model.Input{
			TxID:     c.TxID,
			Vout:     c.Vout,
			Sequence: finalSequence,
		})
	}
	if plan.Change != nil {
		rec.Outputs = append(rec.Outputs, *plan.Change)
	}
	if tokenID != "" {
		rec.TokenOps = []model.TokenOp{{
			Type:    model.TokenOpTransfer,
			TokenID: tokenID,
			From:    sender,
			To:      plan.Recipient.Address,
			Amount:  plan.Recipient.Value,
		}}
	}
	return rec
}
