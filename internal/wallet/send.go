package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wx-shi/shadow-ledger/internal/model"
	"github.com/wx-shi/shadow-ledger/pkg"
	"go.uber.org/zap"
)

// CandidateSource lists the spendable outputs of an address.
type CandidateSource interface {
	Candidates(ctx context.Context, address string) ([]model.SpendableCandidate, error)
}

// Signer signs a record outside this process and returns its id and signature.
type Signer interface {
	Sign(ctx context.Context, record *model.TxRecord) (*model.Signature, error)
}

// Broadcaster submits a signed record to the network.
type Broadcaster interface {
	Submit(ctx context.Context, signed *model.SignedRecord) (*model.Receipt, error)
}

// State is a step of the send flow.
type State int

const (
	StateIdle State = iota
	StateCandidatesFetched
	StateInputsSelected
	StateAssembled
	StateSigned
	StateBroadcastSuccess
	StateBroadcastFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCandidatesFetched:
		return "candidates_fetched"
	case StateInputsSelected:
		return "inputs_selected"
	case StateAssembled:
		return "assembled"
	case StateSigned:
		return "signed"
	case StateBroadcastSuccess:
		return "broadcast_success"
	case StateBroadcastFailed:
		return "broadcast_failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type SigningError struct {
	Err error
}

func (e *SigningError) Error() string { return "wallet: signing failed: " + e.Err.Error() }
func (e *SigningError) Unwrap() error { return e.Err }

// BroadcastError keeps the id of the record that could not be submitted.
type BroadcastError struct {
	TxID string
	Err  error
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("wallet: broadcast of %s failed: %v", e.TxID, e.Err)
}
func (e *BroadcastError) Unwrap() error { return e.Err }

// SendRequest is one transfer. TokenID is empty for the native asset.
type SendRequest struct {
	Sender    string
	Recipient string
	Amount    uint64
	TokenID   string
}

// Result is where a send stopped and what it produced on the way.
type Result struct {
	State   State
	Plan    *model.SpendPlan
	Signed  *model.SignedRecord
	Receipt *model.Receipt
}

// TxID is known from the moment the record is signed.
func (r *Result) TxID() string {
	if r == nil || r.Signed == nil {
		return ""
	}
	return r.Signed.TxHash
}

type Sender struct {
	logger      *zap.Logger
	source      CandidateSource
	selector    Selector
	signer      Signer
	broadcaster Broadcaster
	fee         uint64
	now         func() time.Time
}

func NewSender(logger *zap.Logger, source CandidateSource, signer Signer, broadcaster Broadcaster, fee uint64) *Sender {
	if fee == 0 {
		fee = DefaultFee
	}
	return &Sender{
		logger:      logger,
		source:      source,
		selector:    LargestFirst{},
		signer:      signer,
		broadcaster: broadcaster,
		fee:         fee,
		now:         time.Now,
	}
}

// WithSelector replaces the largest-first selection.
func (s *Sender) WithSelector(sel Selector) *Sender {
	s.selector = sel
	return s
}

// Send walks the flow once. Errors are returned as they came from the failing
// step, wrapped in SigningError or BroadcastError for the external steps;
// nothing is retried. The result is never nil.
func (s *Sender) Send(ctx context.Context, req SendRequest) (*Result, error) {
	res := &Result{State: StateIdle}
	if err := pkg.ValidateAddress(req.Sender); err != nil {
		return res, fmt.Errorf("sender: %w", err)
	}
	if err := pkg.ValidateAddress(req.Recipient); err != nil {
		return res, fmt.Errorf("recipient: %w", err)
	}

	candidates, err := s.source.Candidates(ctx, req.Sender)
	if err != nil {
		return res, err
	}
	res.State = StateCandidatesFetched

	plan, err := s.selector.Select(candidates, req.Sender, req.Recipient, req.Amount, s.fee)
	if err != nil {
		return res, err
	}
	res.Plan = plan
	res.State = StateInputsSelected
	s.logger.Info("Send::Selected",
		zap.String("sender", req.Sender),
		zap.Int("inputs", len(plan.Selected)),
		zap.String("total", pkg.FormatUnit(plan.Total)),
		zap.Bool("change", plan.Change != nil))

	record := Assemble(plan, req.Sender, req.TokenID, s.now())
	res.State = StateAssembled

	sig, err := s.signer.Sign(ctx, record)
	if err != nil {
		return res, &SigningError{Err: err}
	}
	res.Signed = &model.SignedRecord{
		Transaction: *record,
		Signature:   sig.Signature,
		TxHash:      sig.TxID,
		SignerKey:   sig.SignerKey,
		Algorithm:   sig.Algorithm,
	}
	res.State = StateSigned

	return s.submit(ctx, res)
}

// Rebroadcast resubmits a signed record from a failed send without signing again.
func (s *Sender) Rebroadcast(ctx context.Context, prev *Result) (*Result, error) {
	if prev == nil || prev.Signed == nil {
		return prev, errors.New("wallet: nothing signed to rebroadcast")
	}
	if prev.State == StateBroadcastSuccess {
		return prev, nil
	}
	res := *prev
	return s.submit(ctx, &res)
}

func (s *Sender) submit(ctx context.Context, res *Result) (*Result, error) {
	receipt, err := s.broadcaster.Submit(ctx, res.Signed)
	if err != nil {
		res.State = StateBroadcastFailed
		s.logger.Error("Send::Broadcast", zap.String("txid", res.TxID()), zap.Error(err))
		return res, &BroadcastError{TxID: res.TxID(), Err: err}
	}
	res.Receipt = receipt
	res.State = StateBroadcastSuccess
	s.logger.Info("Send::Broadcast", zap.String("txid", res.TxID()), zap.String("status", receipt.Status))
	return res, nil
}
