package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNode(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":-1,"result":{"sync_info":{"latest_block_height":"3"}}}`))
	})
	mux.HandleFunc("/block", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("height") {
		case "1":
			w.Write([]byte(`{"result":{"block":{"data":{"txs":["YQ==","Yg=="]}}}}`))
		case "2":
			w.Write([]byte(`{"result":{"block":{"data":{"txs":null}}}}`))
		case "3":
			w.Write([]byte(`{"result":{"block":{"data":{}}}}`))
		case "5":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"code":-32603,"message":"Internal error","data":"failed to load block at height 5"}}`))
		case "8":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"code":-32603,"message":"Internal error","data":"height 8 is not available, lowest height is 50"}}`))
		case "99":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"code":-32603,"message":"Internal error","data":"height 99 must be less than or equal to the current blockchain height 3"}}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`upstream down`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCurrentHeight(t *testing.T) {
	srv := newNode(t)
	c := NewClient(srv.URL+"/", time.Second)

	h, err := c.CurrentHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), h)
}

func TestGetBlock(t *testing.T) {
	srv := newNode(t)
	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	b, err := c.GetBlock(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.Height)
	assert.Equal(t, []string{"YQ==", "Yg=="}, b.Txs)

	for _, h := range []int64{2, 3} {
		b, err = c.GetBlock(ctx, h)
		require.NoError(t, err)
		assert.NotNil(t, b.Txs)
		assert.Empty(t, b.Txs)
	}
}

func TestGetBlockErrors(t *testing.T) {
	srv := newNode(t)
	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	_, err := c.GetBlock(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetBlock(ctx, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetBlock(ctx, 8)
	assert.ErrorIs(t, err, ErrNotFound)

	// mentions a height but is a node-side failure, so it must stay retryable
	_, err = c.GetBlock(ctx, 5)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = c.GetBlock(ctx, 7)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestConnectionRefused(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := c.CurrentHeight(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNotFoundStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).GetBlock(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
}
