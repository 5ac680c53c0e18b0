// Command stakewatch samples an account's stETH balance and shares plus the pool totals,
// compares them with the account's previous record and appends a new row to a CSV history.
//
// Usage:
//
//	stakewatch                          (one run, identifiers from env / .env)
//	stakewatch --config stakewatch.yaml (one run, yaml config)
//	stakewatch --schedule '@every 1h'   (run on a cron schedule until interrupted)
//	stakewatch --setup                  (interactive configuration wizard)
//
// Required environment variables (or yaml keys api_key, account, contract):
//
//	ALCHEMY_API_KEY, USER_ADDRESS, STETH_ADDRESS
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vadiminshakov/stakewatch/config"
	"github.com/vadiminshakov/stakewatch/internal/clients"
	"github.com/vadiminshakov/stakewatch/internal/services/ledger"
	"github.com/vadiminshakov/stakewatch/internal/setup"
	"github.com/vadiminshakov/stakewatch/internal/storage/history"
	"github.com/vadiminshakov/stakewatch/internal/storage/journal"
	"github.com/vadiminshakov/stakewatch/internal/tracker"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Setup {
		if err := setup.RunTUI(cfg.ConfigPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("stakewatch run failed", zap.Error(err))
		logger.Sync()
		stop()
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	contractABI, err := ledger.LoadABI(cfg.ABIPath)
	if err != nil {
		return err
	}

	client, err := clients.DialEthereum(ctx, cfg.RPCURL, cfg.ConnectRetries, cfg.RPCTimeout, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	reader, err := ledger.NewStETHReader(client, cfg.Contract, contractABI, cfg.RPCTimeout, logger.Named("ledger"))
	if err != nil {
		return err
	}

	opts := []tracker.Option{}
	if !cfg.Quiet {
		opts = append(opts, tracker.WithOutput(os.Stdout, cfg.ShowRows))
	}
	if cfg.JournalDir != "" {
		j, err := journal.NewWALStore(cfg.JournalDir)
		if err != nil {
			return err
		}
		defer func() {
			if err := j.Close(); err != nil {
				logger.Warn("failed to close journal", zap.Error(err))
			}
		}()
		opts = append(opts, tracker.WithJournal(j))
	}

	store := history.NewCSVStore(cfg.HistoryPath)
	t, err := tracker.New(cfg.Account, reader, store, logger.Named("tracker"), opts...)
	if err != nil {
		return err
	}

	if cfg.Schedule != "" {
		return t.Schedule(ctx, cfg.Schedule)
	}

	if _, err := t.RunOnce(ctx); err != nil {
		return err
	}
	logger.Info("history updated", zap.String("path", store.Path()))

	return nil
}
