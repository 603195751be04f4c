package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wx-shi/shadow-ledger/internal/config"
	"github.com/wx-shi/shadow-ledger/internal/db"
	"github.com/wx-shi/shadow-ledger/internal/indexer"
	"github.com/wx-shi/shadow-ledger/internal/rpc"
	"github.com/wx-shi/shadow-ledger/internal/server"
	"github.com/wx-shi/shadow-ledger/pkg"
	"go.uber.org/zap"
)

var (
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "./config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := pkg.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	node := rpc.NewClient(cfg.RPC.URL, cfg.RPC.Timeout)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var (
		balances indexer.BalanceService
		store    db.Store
		finish   <-chan struct{}
	)
	switch cfg.Indexer.Mode {
	case config.ModeProjection:
		store, err = openStore(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Error opening projection store", zap.Error(err))
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Store::Close", zap.Error(err))
			}
		}()

		idx := indexer.NewIndexer(ctx, cfg.Indexer, logger, node, store)
		if err := idx.Sync(); err != nil {
			logger.Fatal("Indexer::Sync", zap.Error(err))
		}
		balances, finish = idx, idx.Finish
	default:
		balances = indexer.NewScanner(cfg.Indexer, logger, node)
	}
	logger.Info("mode", zap.String("mode", cfg.Indexer.Mode), zap.String("rpc", cfg.RPC.URL))

	// Start HTTP server
	httpServer := server.NewServer(cfg.Server, logger, balances, store, node)
	httpServer.Run()

	// Wait for signal
	<-sigCh
	logger.Info("Shutting down...")

	// Shutdown context
	cancel()
	if finish != nil {
		<-finish //确保没在存储时退出程序
	}

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.Store, error) {
	if cfg.Indexer.Backend == config.BackendCosmos {
		cosmosDB, err := db.NewDB(cfg.DB, logger)
		if err != nil {
			return nil, err
		}
		return cosmosDB, nil
	}
	badgerDB, err := db.NewBadgerDB(cfg.BadgerDB, logger)
	if err != nil {
		return nil, err
	}
	badgerDB.GC(ctx)
	return badgerDB, nil
}
