// Command send moves funds from one address to another through an external signer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wx-shi/shadow-ledger/internal/config"
	"github.com/wx-shi/shadow-ledger/internal/wallet"
	"github.com/wx-shi/shadow-ledger/pkg"
	"go.uber.org/zap"
)

var (
	flagconf    string
	flagfrom    string
	flagto      string
	flagamount  string
	flagtoken   string
	flagrebroad int
)

func init() {
	flag.StringVar(&flagconf, "conf", "./config.yaml", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagfrom, "from", "", "sender address")
	flag.StringVar(&flagto, "to", "", "recipient address")
	flag.StringVar(&flagamount, "amount", "", "amount in units, eg: 12.5")
	flag.StringVar(&flagtoken, "token", "", "token id; empty sends the native asset")
	flag.IntVar(&flagrebroad, "rebroadcast", 0, "times to resubmit a signed record after a failed broadcast")
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		return err
	}
	amount, err := pkg.ParseUnit(flagamount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	logger, err := pkg.NewCLILogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timeout := cfg.RPC.Timeout
	sender := wallet.NewSender(logger,
		wallet.NewHTTPCandidateSource(cfg.Wallet.UTXOURL, timeout),
		wallet.NewHTTPSigner(cfg.Wallet.SignerURL, timeout),
		wallet.NewHTTPBroadcaster(cfg.Wallet.BroadcastURL, timeout),
		cfg.Wallet.Fee)

	res, err := sender.Send(ctx, wallet.SendRequest{
		Sender:    flagfrom,
		Recipient: flagto,
		Amount:    amount,
		TokenID:   flagtoken,
	})
	var bErr *wallet.BroadcastError
	for i := 0; i < flagrebroad && errors.As(err, &bErr); i++ {
		logger.Warn("rebroadcast", zap.String("txid", res.TxID()), zap.Int("attempt", i+1))
		res, err = sender.Rebroadcast(ctx, res)
	}
	if err != nil {
		if id := res.TxID(); id != "" {
			fmt.Printf("txid:    %s (%s)\n", id, res.State)
		}
		return err
	}

	fmt.Printf("txid:    %s\n", res.TxID())
	fmt.Printf("status:  %s\n", res.Receipt.Status)
	fmt.Printf("inputs:  %d\n", len(res.Plan.Selected))
	fmt.Printf("fee:     %s\n", pkg.FormatUnit(res.Plan.Fee))
	if res.Plan.Change != nil {
		fmt.Printf("change:  %s\n", pkg.FormatUnit(res.Plan.Change.Value))
	}
	return nil
}
