// Package wallet plans, assembles and hands off a send. It never signs.
package wallet

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/scylladb/go-set/strset"
	"github.com/wx-shi/shadow-ledger/internal/model"
	"github.com/wx-shi/shadow-ledger/pkg"
)

// DefaultFee is the flat network fee, 0.001 unit. It does not depend on size.
const DefaultFee uint64 = 100000

var (
	ErrNoCandidates  = errors.New("wallet: no spendable outputs")
	ErrInvalidAmount = errors.New("wallet: amount must be positive")
)

// InsufficientFundsError is returned when every candidate together cannot pay
// amount plus fee. With no candidates at all it wraps ErrNoCandidates.
type InsufficientFundsError struct {
	Need      uint64
	Have      uint64
	Shortfall uint64
	Err       error
}

func (e *InsufficientFundsError) Error() string {
	msg := fmt.Sprintf("wallet: insufficient funds: need %s, have %s, short %s",
		pkg.FormatUnit(e.Need), pkg.FormatUnit(e.Have), pkg.FormatUnit(e.Shortfall))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InsufficientFundsError) Unwrap() error { return e.Err }

// Selector chooses the inputs of a send. Any shortage, including an empty
// candidate list, is reported as *InsufficientFundsError.
type Selector interface {
	Select(candidates []model.SpendableCandidate, sender, recipient string, amount, fee uint64) (*model.SpendPlan, error)
}

// LargestFirst spends the biggest outputs first until amount plus fee is covered.
type LargestFirst struct{}

func (LargestFirst) Select(candidates []model.SpendableCandidate, sender, recipient string, amount, fee uint64) (*model.SpendPlan, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	need := amount + fee
	if need < amount {
		return nil, fmt.Errorf("wallet: amount %d overflows with fee %d", amount, fee)
	}
	if len(candidates) == 0 {
		return nil, &InsufficientFundsError{Need: need, Shortfall: need, Err: ErrNoCandidates}
	}

	sorted := dedupe(candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		if a.TxID != b.TxID {
			return a.TxID < b.TxID
		}
		return a.Vout < b.Vout
	})

	var (
		selected []model.SpendableCandidate
		total    uint64
	)
	for _, c := range sorted {
		if total >= need {
			break
		}
		selected = append(selected, c)
		total += c.Value
	}
	if total < need {
		return nil, &InsufficientFundsError{Need: need, Have: total, Shortfall: need - total}
	}

	plan := &model.SpendPlan{
		Selected:  selected,
		Recipient: model.Output{Address: recipient, Value: amount},
		Fee:       fee,
		Total:     total,
	}
	// 找零
	if change := total - need; change > 0 {
		plan.Change = &model.Output{Address: sender, Value: change}
	}
	return plan, nil
}

// dedupe keeps the first occurrence of every outpoint.
func dedupe(candidates []model.SpendableCandidate) []model.SpendableCandidate {
	seen := strset.NewWithSize(len(candidates))
	out := make([]model.SpendableCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := c.TxID + ":" + strconv.FormatUint(uint64(c.Vout), 10)
		if seen.Has(key) {
			continue
		}
		seen.Add(key)
		out = append(out, c)
	}
	return out
}
