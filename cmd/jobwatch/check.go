package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobwatch/internal/poller"
	"jobwatch/internal/queue"
	"jobwatch/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Poll every employer once, print matches, exit",
	Long:  "One-shot poll: fetches every tracked employer's board, runs analysis on all listed postings, prints matches, exits. Does not write to the store.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("check mode: snapshots will not be persisted")

	// Employers come from the real store, but polls run against a NopStore so
	// check never advances the stored snapshots. With no stored snapshot,
	// every listed posting counts as new.
	sqlStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	employers, err := sqlStore.ListEmployers()
	sqlStore.Close()
	if err != nil {
		logger.Error("failed to list employers", "error", err)
		os.Exit(1)
	}
	if len(employers) == 0 {
		logger.Error("no employers tracked; add one with `jobwatch employers add`")
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.Board.Timeout}
	n := setupNotifier(cfg, httpClient, logger)
	analyzer, err := setupAnalyzer(cfg, logger)
	if err != nil {
		logger.Error("failed to set up analyzer", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := poller.NewMatchHandler(analyzer, n, logger)
	q := queue.New(ctx, cfg.Queue.Capacity, cfg.Queue.MaxConcurrent, handler, logger)

	nopStore := store.NewNopStore(employers)
	factory := buildPollerFactory(cfg, nopStore, q, httpClient, logger)
	for _, e := range employers {
		p := factory(e)
		if err := p.Poll(ctx); err != nil {
			logger.Error("poll failed", "employer", e.Name, "error", err)
		}
	}

	q.Drain()
	logger.Info("check complete")
	return nil
}
