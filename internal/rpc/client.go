// Package rpc reads chain height and blocks from a Tendermint-style RPC node.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	"github.com/wx-shi/shadow-ledger/internal/model"
)

const defaultTimeout = 10 * time.Second

// BlockSource is what the scanner needs from a node.
type BlockSource interface {
	CurrentHeight(ctx context.Context) (int64, error)
	GetBlock(ctx context.Context, height int64) (*model.Block, error)
}

// Client talks to the node over plain HTTP GET. It never retries.
type Client struct {
	url  string
	gout *gout.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:  strings.TrimRight(url, "/"),
		gout: gout.NewWithOpt(gout.WithClient(&http.Client{Timeout: timeout})),
	}
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *rpcError) String() string {
	if e.Data == "" {
		return fmt.Sprintf("%d %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%d %s: %s", e.Code, e.Message, e.Data)
}

// Tendermint reports heights beyond its tip or below its pruning point as
// internal errors; only these wordings mean the height does not exist.
var missingHeightMessages = []string{
	"must be less than or equal to the current blockchain height",
	"is not available, lowest height is",
}

func (e *rpcError) missingHeight() bool {
	for _, m := range missingHeightMessages {
		if strings.Contains(e.Data, m) || strings.Contains(e.Message, m) {
			return true
		}
	}
	return false
}

type statusResult struct {
	SyncInfo struct {
		LatestBlockHeight string `json:"latest_block_height"`
	} `json:"sync_info"`
}

type blockResult struct {
	Block struct {
		Data struct {
			Txs []string `json:"txs"`
		} `json:"data"`
	} `json:"block"`
}

// CurrentHeight returns result.sync_info.latest_block_height of GET /status.
func (c *Client) CurrentHeight(ctx context.Context) (int64, error) {
	var res statusResult
	if err := c.get(ctx, "/status", nil, &res); err != nil {
		return 0, err
	}
	height, err := strconv.ParseInt(res.SyncInfo.LatestBlockHeight, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: latest_block_height %q", ErrUnavailable, res.SyncInfo.LatestBlockHeight)
	}
	return height, nil
}

// GetBlock returns the encoded transactions of GET /block?height=n. An absent txs list is empty.
func (c *Client) GetBlock(ctx context.Context, height int64) (*model.Block, error) {
	if height <= 0 {
		return nil, fmt.Errorf("%w: height %d", ErrNotFound, height)
	}
	var res blockResult
	if err := c.get(ctx, "/block", gout.H{"height": height}, &res); err != nil {
		return nil, err
	}
	txs := res.Block.Data.Txs
	if txs == nil {
		txs = []string{}
	}
	return &model.Block{Height: height, Txs: txs}, nil
}

func (c *Client) get(ctx context.Context, path string, query gout.H, result interface{}) error {
	var (
		code int
		body []byte
	)
	flow := c.gout.GET(c.url + path).WithContext(ctx)
	if query != nil {
		flow = flow.SetQuery(query)
	}
	if err := flow.BindBody(&body).Code(&code).Do(); err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrUnavailable, path, err)
	}

	if code == http.StatusNotFound {
		return fmt.Errorf("%w: GET %s: HTTP %d", ErrNotFound, path, code)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: GET %s: HTTP %d: %v", ErrUnavailable, path, code, err)
	}
	if env.Error != nil {
		if env.Error.missingHeight() {
			return fmt.Errorf("%w: GET %s: %s", ErrNotFound, path, env.Error)
		}
		return fmt.Errorf("%w: GET %s: %s", ErrUnavailable, path, env.Error)
	}
	if code >= http.StatusBadRequest {
		return fmt.Errorf("%w: GET %s: HTTP %d", ErrUnavailable, path, code)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return fmt.Errorf("%w: GET %s: empty result", ErrUnavailable, path)
	}
	if err := json.Unmarshal(env.Result, result); err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrUnavailable, path, err)
	}
	return nil
}
