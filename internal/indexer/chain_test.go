package indexer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wx-shi/shadow-ledger/internal/config"
	"github.com/wx-shi/shadow-ledger/internal/model"
	"github.com/wx-shi/shadow-ledger/internal/rpc"
	"github.com/wx-shi/shadow-ledger/internal/txcodec"
)

var (
	alice = "S" + strings.Repeat("a", 50)
	bob   = "S" + strings.Repeat("b", 50)
	carol = "S" + strings.Repeat("c", 50)
)

const corruptTx = "@@not-a-transaction@@"

// fakeChain is an in-memory BlockSource. failures[h] makes the next n fetches
// of h fail with err.
type fakeChain struct {
	mu       sync.Mutex
	blocks   [][]string
	failures map[int64]failure
	calls    map[int64]int
	onFetch  func(height int64)
}

type failure struct {
	n   int
	err error
}

func newFakeChain(blocks ...[]string) *fakeChain {
	return &fakeChain{
		blocks:   blocks,
		failures: make(map[int64]failure),
		calls:    make(map[int64]int),
	}
}

func (c *fakeChain) CurrentHeight(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.blocks)), nil
}

func (c *fakeChain) GetBlock(ctx context.Context, height int64) (*model.Block, error) {
	if c.onFetch != nil {
		c.onFetch(height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[height]++
	if f, ok := c.failures[height]; ok && f.n > 0 {
		f.n--
		c.failures[height] = f
		return nil, f.err
	}
	if height < 1 || height > int64(len(c.blocks)) {
		return nil, fmt.Errorf("%w: height %d", rpc.ErrNotFound, height)
	}
	txs := append([]string{}, c.blocks[height-1]...)
	return &model.Block{Height: height, Txs: txs}, nil
}

func (c *fakeChain) append(txs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks = append(c.blocks, txs)
}

func (c *fakeChain) callsAt(height int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[height]
}

func (c *fakeChain) totalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func signedTx(t testing.TB, algorithm, signer string, outputs ...model.Output) string {
	t.Helper()
	inner, err := txcodec.EncodeInner(&model.InnerTransaction{Version: 1, Outputs: outputs})
	if err != nil {
		t.Fatal(err)
	}
	blob, err := txcodec.EncodeSigned(&model.SignedTransaction{
		Algorithm:   algorithm,
		SignerKey:   signer,
		Transaction: inner,
	})
	if err != nil {
		t.Fatal(err)
	}
	return blob
}

func coinbase(t testing.TB, signer string, outputs ...model.Output) string {
	return signedTx(t, model.AlgorithmCoinbase, signer, outputs...)
}

func pay(address string, value uint64) model.Output {
	return model.Output{Address: address, Value: value}
}

func testConf(workers int) *config.IndexerConfig {
	return &config.IndexerConfig{
		Workers:       workers,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
		BatchSize:     2,
		BlockChanBuf:  4,
		PollInterval:  5 * time.Millisecond,
	}
}
