package indexer

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
	"github.com/wx-shi/shadow-ledger/internal/config"
	"github.com/wx-shi/shadow-ledger/internal/model"
	"github.com/wx-shi/shadow-ledger/internal/rpc"
)

// retryOptions retries transport failures with backoff. Missing heights and
// cancellation are returned at once.
func retryOptions(ctx context.Context, conf *config.IndexerConfig) []retry.Option {
	attempts := conf.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	delay := conf.RetryDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, rpc.ErrUnavailable)
		}),
	}
}

func getBlock(ctx context.Context, source rpc.BlockSource, conf *config.IndexerConfig, height int64) (*model.Block, error) {
	var block *model.Block
	err := retry.Do(func() error {
		b, err := source.GetBlock(ctx, height)
		if err != nil {
			return err
		}
		block = b
		return nil
	}, retryOptions(ctx, conf)...)
	return block, err
}

func getHeight(ctx context.Context, source rpc.BlockSource, conf *config.IndexerConfig) (int64, error) {
	var height int64
	err := retry.Do(func() error {
		h, err := source.CurrentHeight(ctx)
		if err != nil {
			return err
		}
		height = h
		return nil
	}, retryOptions(ctx, conf)...)
	return height, err
}

// fetchFailure classifies a block that could not be fetched.
func fetchFailure(height int64, err error) model.ScanDefect {
	kind := model.DefectUnavailable
	if errors.Is(err, rpc.ErrNotFound) {
		kind = model.DefectNotFound
	}
	return model.ScanDefect{
		Height:  height,
		TxIndex: -1,
		Kind:    kind,
		Message: err.Error(),
	}
}
