package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	"github.com/wx-shi/shadow-ledger/internal/model"
)

const (
	utxoPath      = "/api/v1/utxos"
	signPath      = "/sign"
	broadcastPath = "/api/v1/mempool/transactions"
)

var ErrRemote = errors.New("wallet: remote call failed")

func newGout(timeout time.Duration) *gout.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return gout.NewWithOpt(gout.WithClient(&http.Client{Timeout: timeout}))
}

// HTTPCandidateSource reads GET /api/v1/utxos?address=. A null body is no candidates.
type HTTPCandidateSource struct {
	url  string
	gout *gout.Client
}

func NewHTTPCandidateSource(url string, timeout time.Duration) *HTTPCandidateSource {
	return &HTTPCandidateSource{url: strings.TrimRight(url, "/"), gout: newGout(timeout)}
}

func (h *HTTPCandidateSource) Candidates(ctx context.Context, address string) ([]model.SpendableCandidate, error) {
	var (
		code int
		body []byte
	)
	err := h.gout.GET(h.url+utxoPath).WithContext(ctx).
		SetQuery(gout.H{"address": address}).
		BindBody(&body).Code(&code).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrRemote, utxoPath, err)
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: HTTP %d: %s", ErrRemote, utxoPath, code, strings.TrimSpace(string(body)))
	}

	var out []model.SpendableCandidate
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrRemote, utxoPath, err)
	}
	return out, nil
}

// HTTPSigner posts the record to a signing bridge that holds the key.
type HTTPSigner struct {
	url  string
	gout *gout.Client
}

func NewHTTPSigner(url string, timeout time.Duration) *HTTPSigner {
	return &HTTPSigner{url: strings.TrimRight(url, "/"), gout: newGout(timeout)}
}

func (h *HTTPSigner) Sign(ctx context.Context, record *model.TxRecord) (*model.Signature, error) {
	var (
		code int
		body []byte
	)
	err := h.gout.POST(h.url+signPath).WithContext(ctx).
		SetJSON(record).
		BindBody(&body).Code(&code).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %v", ErrRemote, signPath, err)
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("%w: POST %s: HTTP %d: %s", ErrRemote, signPath, code, strings.TrimSpace(string(body)))
	}

	var sig model.Signature
	if err := json.Unmarshal(body, &sig); err != nil {
		return nil, fmt.Errorf("%w: POST %s: %v", ErrRemote, signPath, err)
	}
	if sig.TxID == "" || sig.Signature == "" {
		return nil, fmt.Errorf("%w: POST %s: signer returned no txid or signature", ErrRemote, signPath)
	}
	return &sig, nil
}

// HTTPBroadcaster posts signed records to the node's mempool.
type HTTPBroadcaster struct {
	url  string
	gout *gout.Client
}

func NewHTTPBroadcaster(url string, timeout time.Duration) *HTTPBroadcaster {
	return &HTTPBroadcaster{url: strings.TrimRight(url, "/"), gout: newGout(timeout)}
}

func (h *HTTPBroadcaster) Submit(ctx context.Context, signed *model.SignedRecord) (*model.Receipt, error) {
	var (
		code int
		body []byte
	)
	err := h.gout.POST(h.url+broadcastPath).WithContext(ctx).
		SetJSON(signed).
		BindBody(&body).Code(&code).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %v", ErrRemote, broadcastPath, err)
	}
	switch code {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		return nil, fmt.Errorf("%w: POST %s: HTTP %d: %s", ErrRemote, broadcastPath, code, strings.TrimSpace(string(body)))
	}

	// 节点有时只回空body
	receipt := &model.Receipt{Status: "success", Message: "accepted", TxHash: signed.TxHash}
	if len(body) > 0 {
		var r model.Receipt
		if err := json.Unmarshal(body, &r); err == nil {
			if r.Status != "" {
				receipt.Status = r.Status
			}
			if r.Message != "" {
				receipt.Message = r.Message
			}
			if r.TxHash != "" {
				receipt.TxHash = r.TxHash
			}
		}
	}
	return receipt, nil
}
