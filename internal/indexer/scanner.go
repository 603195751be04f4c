package indexer

import (
	"context"
	"sort"
	"time"

	"github.com/wx-shi/shadow-ledger/internal/config"
	"github.com/wx-shi/shadow-ledger/internal/model"
	"github.com/wx-shi/shadow-ledger/internal/rpc"
	"github.com/wx-shi/shadow-ledger/pkg"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BalanceService answers balance queries, either by replay or from the projection.
type BalanceService interface {
	Balance(ctx context.Context, address string) (*model.AddressBalance, error)
}

// ScanReport says how complete a replay was.
type ScanReport struct {
	LatestHeight int64 `json:"latest_height"`
	// ScannedHeight is the highest h such that every height in [1, h] was visited.
	ScannedHeight int64              `json:"scanned_height"`
	Defects       []model.ScanDefect `json:"defects"`
}

// Complete reports whether every height was visited and nothing was skipped.
func (r *ScanReport) Complete() bool {
	return r.ScannedHeight == r.LatestHeight && len(r.Defects) == 0
}

// Scanner replays the whole chain for one address per query.
type Scanner struct {
	logger *zap.Logger
	source rpc.BlockSource
	conf   *config.IndexerConfig
}

func NewScanner(conf *config.IndexerConfig, logger *zap.Logger, source rpc.BlockSource) *Scanner {
	return &Scanner{
		conf:   conf,
		logger: logger,
		source: source,
	}
}

func (s *Scanner) Balance(ctx context.Context, address string) (*model.AddressBalance, error) {
	bal, report, err := s.Scan(ctx, address)
	if err != nil {
		return nil, err
	}
	if !report.Complete() {
		s.logger.Warn("Scan::Partial",
			zap.String("address", address),
			zap.Int64("latest", report.LatestHeight),
			zap.Int("defects", len(report.Defects)))
	}
	return bal, nil
}

// Scan folds heights 1..latest into the balance of address. Heights are fetched
// by up to conf.Workers goroutines; a single aggregator owns the running totals.
//
// Failed blocks and undecodable transactions are skipped and listed in the
// report. When ctx is cancelled the partial balance and report are returned
// together with ctx's error.
func (s *Scanner) Scan(ctx context.Context, address string) (*model.AddressBalance, *ScanReport, error) {
	if err := pkg.ValidateAddress(address); err != nil {
		return nil, nil, err
	}
	startTime := time.Now()

	latest, err := getHeight(ctx, s.source, s.conf)
	if err != nil {
		return nil, nil, err
	}

	bal := &model.AddressBalance{Address: address}
	report := &ScanReport{LatestHeight: latest, Defects: []model.ScanDefect{}}
	match := func(signer string) bool { return signer == address }

	workers := s.conf.Workers
	if workers <= 0 {
		workers = 1
	}

	heights := make(chan int64)
	folds := make(chan blockFold, workers)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(heights)
		for h := int64(1); h <= latest; h++ {
			select {
			case heights <- h:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for h := range heights {
				f := s.scanHeight(gctx, h, match)
				select {
				case folds <- f:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(folds)
	}()

	done := make(map[int64]struct{})
	next := int64(1)
	for f := range folds {
		if f.cancelled {
			continue
		}
		if d, ok := f.deltas[address]; ok {
			bal.Value += d.Value
			bal.RewardCount += d.RewardCount
		}
		report.Defects = append(report.Defects, f.defects...)

		done[f.height] = struct{}{}
		for {
			if _, ok := done[next]; !ok {
				break
			}
			delete(done, next)
			report.ScannedHeight = next
			next++
		}
	}
	err = <-waitErr

	sort.Slice(report.Defects, func(i, j int) bool {
		a, b := report.Defects[i], report.Defects[j]
		if a.Height != b.Height {
			return a.Height < b.Height
		}
		return a.TxIndex < b.TxIndex
	})

	if ctxErr := ctx.Err(); ctxErr != nil {
		s.logger.Warn("Scan::Cancelled",
			zap.String("address", address),
			zap.Int64("scanned", report.ScannedHeight),
			zap.Int64("latest", latest))
		return bal, report, ctxErr
	}
	if err != nil {
		return bal, report, err
	}

	s.logger.Info("Scan::Done",
		zap.String("address", address),
		zap.Int64("latest", latest),
		zap.Uint64("value", bal.Value),
		zap.Uint64("rewards", bal.RewardCount),
		zap.Int("defects", len(report.Defects)),
		zap.Duration("ttl", time.Since(startTime)))
	return bal, report, nil
}

// scanHeight fetches and folds one height, converting failures into defects.
func (s *Scanner) scanHeight(ctx context.Context, height int64, match func(string) bool) blockFold {
	startTime := time.Now()
	block, err := getBlock(ctx, s.source, s.conf, height)
	if err != nil {
		if ctx.Err() != nil {
			return blockFold{height: height, cancelled: true}
		}
		s.logger.Error("getBlock", zap.Int64("height", height), zap.Error(err))
		return blockFold{height: height, defects: []model.ScanDefect{fetchFailure(height, err)}}
	}

	deltas, defects := FoldBlock(block, match)
	for _, d := range defects {
		s.logger.Warn("Scan::Skip",
			zap.Int64("height", d.Height),
			zap.Int("tx_index", d.TxIndex),
			zap.String("reason", d.Message))
	}
	s.logger.Debug("Scan::Info", zap.Int64("height", height), zap.Int("tx_len", len(block.Txs)), zap.Duration("ttl", time.Since(startTime)))
	return blockFold{height: height, deltas: deltas, defects: defects}
}
