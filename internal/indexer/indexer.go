package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/wx-shi/shadow-ledger/internal/config"
	"github.com/wx-shi/shadow-ledger/internal/db"
	"github.com/wx-shi/shadow-ledger/internal/model"
	"github.com/wx-shi/shadow-ledger/internal/rpc"
	"github.com/wx-shi/shadow-ledger/pkg"
	"go.uber.org/zap"
)

// Indexer keeps a persisted per-address projection of coinbase rewards up to
// date. scan fetches and folds heights in order; store is the only writer.
type Indexer struct {
	ctx                 context.Context
	logger              *zap.Logger
	source              rpc.BlockSource
	db                  db.Store
	conf                *config.IndexerConfig
	scanHeight          int64
	storeHeight         atomic.Int64
	blockChan           chan blockFold
	isHistoryScanFinish atomic.Bool
	// Finish is closed once the store loop has flushed and exited.
	Finish chan struct{}
}

func NewIndexer(ctx context.Context, conf *config.IndexerConfig,
	logger *zap.Logger, source rpc.BlockSource, store db.Store) *Indexer {
	return &Indexer{
		ctx:    ctx,
		conf:   conf,
		logger: logger,
		source: source,
		db:     store,
		Finish: make(chan struct{}),
	}
}

func (i *Indexer) Sync() error {
	if err := i.init(); err != nil {
		return err
	}
	go i.scan()
	go i.store()
	return nil
}

func (i *Indexer) init() error {
	height, err := i.db.GetStoreHeight()
	if err != nil {
		return fmt.Errorf("GetStoreHeight: %w", err)
	}
	i.storeHeight.Store(height)
	i.scanHeight = height + 1
	i.blockChan = make(chan blockFold, i.conf.BlockChanBuf)
	return nil
}

// StoreHeight is the last height reflected in the projection.
func (i *Indexer) StoreHeight() int64 {
	return i.storeHeight.Load()
}

// Balance reads the projection. It may trail the node by the unstored batch.
func (i *Indexer) Balance(ctx context.Context, address string) (*model.AddressBalance, error) {
	if err := pkg.ValidateAddress(address); err != nil {
		return nil, err
	}
	return i.db.GetBalance(address)
}

func (i *Indexer) scan() {
	for {
		select {
		case <-i.ctx.Done():
			return
		default:
		}

		//获取当前最新高度
		nheight, err := getHeight(i.ctx, i.source, i.conf)
		if err != nil {
			i.logger.Error("CurrentHeight", zap.Error(err))
			i.wait()
			continue
		}

		if i.scanHeight > nheight {
			i.isHistoryScanFinish.Store(true)
			i.wait()
			continue
		}

		i.isHistoryScanFinish.Store(false)
		i.scanByHeightRange(i.scanHeight, nheight)
	}
}

func (i *Indexer) wait() {
	t := time.NewTimer(i.conf.PollInterval)
	defer t.Stop()
	select {
	case <-i.ctx.Done():
	case <-t.C:
	}
}

// scanByHeightRange 扫描 通过高度范围
// A height the node cannot serve right now stops the range; the next round
// rescans from it, so scanHeight never passes a block that was not folded.
func (idx *Indexer) scanByHeightRange(startHeight int64, endHeight int64) {
	for h := startHeight; h <= endHeight; h++ {
		if idx.ctx.Err() != nil {
			return
		}
		f, err := idx.scanTxByBlock(h)
		if err != nil {
			if idx.ctx.Err() == nil {
				idx.logger.Error("Scan::Stall", zap.Int64("height", h), zap.Error(err))
				idx.wait()
			}
			return
		}
		if h == endHeight {
			idx.isHistoryScanFinish.Store(true)
		}
		select {
		case idx.blockChan <- f:
		case <-idx.ctx.Done():
			return
		}
		idx.scanHeight = h + 1
	}
}

// scanTxByBlock 扫描指定高度
// Only a missing height becomes a defect; transport failures are returned.
func (idx *Indexer) scanTxByBlock(height int64) (blockFold, error) {
	startTime := time.Now()
	block, err := getBlock(idx.ctx, idx.source, idx.conf, height)
	if err != nil {
		if idx.ctx.Err() != nil {
			return blockFold{}, idx.ctx.Err()
		}
		if !errors.Is(err, rpc.ErrNotFound) {
			return blockFold{}, err
		}
		idx.logger.Error("getBlock", zap.Int64("height", height), zap.Error(err))
		return blockFold{height: height, defects: []model.ScanDefect{fetchFailure(height, err)}}, nil
	}

	deltas, defects := FoldBlock(block, nil)
	for _, d := range defects {
		idx.logger.Warn("Scan::Skip",
			zap.Int64("height", d.Height),
			zap.Int("tx_index", d.TxIndex),
			zap.String("reason", d.Message))
	}
	idx.logger.Debug("Scan::Info", zap.Int64("height", height), zap.Int("tx_len", len(block.Txs)), zap.Duration("ttl", time.Since(startTime)))
	return blockFold{height: height, deltas: deltas, defects: defects}, nil
}

func (i *Indexer) store() {
	defer close(i.Finish)

	deltas := make(map[string]db.Delta)
	defects := make([]model.ScanDefect, 0)
	var (
		lastHeight int64
		pending    int
	)

	flush := func() {
		if lastHeight <= i.storeHeight.Load() {
			return
		}
		if err := i.db.Store(deltas, defects, lastHeight); err != nil {
			// keep the batch; it is retried with the next block
			i.logger.Error("Store", zap.Int64("lastHeight", lastHeight), zap.Error(err))
			return
		}
		i.storeHeight.Store(lastHeight)
		deltas = make(map[string]db.Delta)
		defects = make([]model.ScanDefect, 0)
		pending = 0
	}

	for {
		select {
		case <-i.ctx.Done():
			flush()
			return
		case f := <-i.blockChan:
			lastHeight = f.height
			for addr, d := range f.deltas {
				cur := deltas[addr]
				cur.Value += d.Value
				cur.RewardCount += d.RewardCount
				deltas[addr] = cur
				pending += int(d.RewardCount)
			}
			defects = append(defects, f.defects...)
			pending += len(f.defects)

			//追上最新高度直接存储
			if i.isHistoryScanFinish.Load() && len(i.blockChan) == 0 {
				flush()
				continue
			}
		}
		if pending >= i.conf.BatchSize {
			flush()
		}
	}
}
