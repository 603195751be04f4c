// Command checkbalance replays the chain once and prints the coinbase balance of an address.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/wx-shi/shadow-ledger/internal/config"
	"github.com/wx-shi/shadow-ledger/internal/indexer"
	"github.com/wx-shi/shadow-ledger/internal/model"
	"github.com/wx-shi/shadow-ledger/internal/rpc"
	"github.com/wx-shi/shadow-ledger/pkg"
	"go.uber.org/zap"
)

var (
	flagconf    string
	flagaddress string
	flagrpc     string
	flagworkers int
)

func init() {
	flag.StringVar(&flagconf, "conf", "", "config path; defaults are used when empty")
	flag.StringVar(&flagaddress, "address", "", "address to check (51 chars, starts with S)")
	flag.StringVar(&flagrpc, "rpc", "", "node RPC url, overrides the config")
	flag.IntVar(&flagworkers, "workers", 0, "concurrent block fetchers, overrides the config")
}

func main() {
	flag.Parse()
	if flagaddress == "" && flag.NArg() > 0 {
		flagaddress = flag.Arg(0)
	}
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "checkbalance: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := pkg.ValidateAddress(flagaddress); err != nil {
		return err
	}

	cfg := &config.Config{}
	if flagconf != "" {
		c, err := config.LoadConfig(flagconf)
		if err != nil {
			return err
		}
		cfg = c
	} else {
		cfg.SetDefaults()
	}
	if flagrpc != "" {
		cfg.RPC.URL = flagrpc
	}
	if flagworkers > 0 {
		cfg.Indexer.Workers = flagworkers
	}

	logger, err := pkg.NewCLILogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scanner := indexer.NewScanner(cfg.Indexer, logger, rpc.NewClient(cfg.RPC.URL, cfg.RPC.Timeout))
	bal, report, scanErr := scanner.Scan(ctx, flagaddress)
	if bal == nil {
		return scanErr
	}

	for _, d := range report.Defects {
		logger.Warn("skipped", zap.Int64("height", d.Height), zap.Int("tx_index", d.TxIndex),
			zap.String("kind", d.Kind), zap.String("reason", d.Message))
	}
	printErr := printResult(os.Stdout, bal, report)
	if scanErr != nil {
		return fmt.Errorf("partial result: %w", scanErr)
	}
	return printErr
}

// printResult writes the summary and fails when any height was skipped.
func printResult(w io.Writer, bal *model.AddressBalance, report *indexer.ScanReport) error {
	fmt.Fprintf(w, "address:       %s\n", bal.Address)
	fmt.Fprintf(w, "balance:       %s (%s satoshis)\n", pkg.FormatUnit(bal.Value), humanize.Comma(int64(bal.Value)))
	fmt.Fprintf(w, "rewards:       %s\n", humanize.Comma(int64(bal.RewardCount)))
	fmt.Fprintf(w, "scanned:       %s / %s\n", humanize.Comma(report.ScannedHeight), humanize.Comma(report.LatestHeight))
	if len(report.Defects) > 0 {
		fmt.Fprintf(w, "skipped:       %s\n", english.Plural(len(report.Defects), "defect", "defects"))
	}
	if !report.Complete() {
		return fmt.Errorf("partial result: scanned %d of %d heights, %s",
			report.ScannedHeight, report.LatestHeight, english.Plural(len(report.Defects), "defect", "defects"))
	}
	return nil
}
