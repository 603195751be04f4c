package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wx-shi/shadow-ledger/internal/model"
	"github.com/wx-shi/shadow-ledger/pkg"
	"go.uber.org/zap"
)

type fakeSource struct {
	candidates []model.SpendableCandidate
	err        error
}

func (f *fakeSource) Candidates(ctx context.Context, address string) ([]model.SpendableCandidate, error) {
	return f.candidates, f.err
}

type fakeSigner struct {
	calls  int
	record *model.TxRecord
	err    error
}

func (f *fakeSigner) Sign(ctx context.Context, record *model.TxRecord) (*model.Signature, error) {
	f.calls++
	f.record = record
	if f.err != nil {
		return nil, f.err
	}
	return &model.Signature{TxID: "tx-1", Signature: "c2ln", SignerKey: sender, Algorithm: "ML-DSA-87"}, nil
}

type fakeBroadcaster struct {
	errs  []error
	calls int
	sent  []*model.SignedRecord
}

func (f *fakeBroadcaster) Submit(ctx context.Context, signed *model.SignedRecord) (*model.Receipt, error) {
	f.calls++
	f.sent = append(f.sent, signed)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &model.Receipt{Status: "success", TxHash: signed.TxHash}, nil
}

func newTestSender(src CandidateSource, signer Signer, b Broadcaster) *Sender {
	s := NewSender(zap.NewNop(), src, signer, b, 0)
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func TestSendSuccess(t *testing.T) {
	src := &fakeSource{candidates: []model.SpendableCandidate{utxo("a", 0, 10), utxo("b", 1, 5)}}
	signer := &fakeSigner{}
	b := &fakeBroadcaster{}

	res, err := newTestSender(src, signer, b).Send(context.Background(), SendRequest{
		Sender: sender, Recipient: recipient, Amount: 12 * pkg.SatoshisPerUnit,
	})
	require.NoError(t, err)
	assert.Equal(t, StateBroadcastSuccess, res.State)
	assert.Equal(t, "tx-1", res.TxID())
	assert.Equal(t, "success", res.Receipt.Status)

	require.Len(t, b.sent, 1)
	signed := b.sent[0]
	assert.Equal(t, "c2ln", signed.Signature)
	assert.Equal(t, "ML-DSA-87", signed.Algorithm)
	assert.Equal(t, "2024-01-02T03:04:05Z", signed.Transaction.Timestamp)
	assert.Len(t, signed.Transaction.Inputs, 2)
	assert.Len(t, signed.Transaction.Outputs, 2)
	assert.Empty(t, signed.Transaction.TokenOps)
}

func TestSendInsufficientFundsAssemblesNothing(t *testing.T) {
	src := &fakeSource{candidates: []model.SpendableCandidate{utxo("a", 0, 1)}}
	signer := &fakeSigner{}
	b := &fakeBroadcaster{}

	res, err := newTestSender(src, signer, b).Send(context.Background(), SendRequest{
		Sender: sender, Recipient: recipient, Amount: pkg.SatoshisPerUnit,
	})
	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, StateCandidatesFetched, res.State)
	assert.Zero(t, signer.calls)
	assert.Zero(t, b.calls)
}

func TestSendCandidateFailure(t *testing.T) {
	boom := errors.New("utxo service down")
	res, err := newTestSender(&fakeSource{err: boom}, &fakeSigner{}, &fakeBroadcaster{}).
		Send(context.Background(), SendRequest{Sender: sender, Recipient: recipient, Amount: 1})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateIdle, res.State)
}

func TestSendSigningFailure(t *testing.T) {
	boom := errors.New("bridge refused")
	src := &fakeSource{candidates: []model.SpendableCandidate{utxo("a", 0, 10)}}
	b := &fakeBroadcaster{}

	res, err := newTestSender(src, &fakeSigner{err: boom}, b).Send(context.Background(), SendRequest{
		Sender: sender, Recipient: recipient, Amount: 1,
	})
	var signErr *SigningError
	require.ErrorAs(t, err, &signErr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateAssembled, res.State)
	assert.Empty(t, res.TxID())
	assert.Zero(t, b.calls)
}

func TestSendBroadcastFailureKeepsSignedRecord(t *testing.T) {
	boom := errors.New("mempool full")
	src := &fakeSource{candidates: []model.SpendableCandidate{utxo("a", 0, 10)}}
	signer := &fakeSigner{}
	b := &fakeBroadcaster{errs: []error{boom}}
	s := newTestSender(src, signer, b)

	res, err := s.Send(context.Background(), SendRequest{
		Sender: sender, Recipient: recipient, Amount: 1, TokenID: "tok",
	})
	var bErr *BroadcastError
	require.ErrorAs(t, err, &bErr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "tx-1", bErr.TxID)
	assert.Equal(t, StateBroadcastFailed, res.State)
	require.NotNil(t, res.Signed)
	assert.Len(t, res.Signed.Transaction.TokenOps, 1)

	again, err := s.Rebroadcast(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, StateBroadcastSuccess, again.State)
	assert.Equal(t, "tx-1", again.TxID())
	assert.Equal(t, 1, signer.calls)
	assert.Equal(t, 2, b.calls)
	assert.Same(t, b.sent[0], b.sent[1])
}

func TestSendRejectsInvalidAddresses(t *testing.T) {
	s := newTestSender(&fakeSource{}, &fakeSigner{}, &fakeBroadcaster{})

	_, err := s.Send(context.Background(), SendRequest{Sender: "nope", Recipient: recipient, Amount: 1})
	assert.ErrorIs(t, err, pkg.ErrInvalidAddress)
	_, err = s.Send(context.Background(), SendRequest{Sender: sender, Recipient: "S123", Amount: 1})
	assert.ErrorIs(t, err, pkg.ErrInvalidAddress)
}

func TestRebroadcastNeedsSignedRecord(t *testing.T) {
	s := newTestSender(&fakeSource{}, &fakeSigner{}, &fakeBroadcaster{})
	_, err := s.Rebroadcast(context.Background(), &Result{State: StateAssembled})
	assert.Error(t, err)
}
