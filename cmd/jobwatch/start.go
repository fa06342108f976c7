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
	"jobwatch/internal/scheduler"
	"jobwatch/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the polling daemon",
	Long:  "Start the scheduler daemon; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"poll_interval", cfg.PollingInterval.String(),
		"discovery_interval", cfg.DiscoveryInterval.String(),
		"queue_capacity", cfg.Queue.Capacity,
		"analysis_enabled", cfg.Analysis.Enabled,
		"notifier", cfg.Notification.Type,
	)

	sqlStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

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

	factory := buildPollerFactory(cfg, sqlStore, q, httpClient, logger)
	sched := scheduler.NewScheduler(sqlStore, factory, cfg.PollingInterval, cfg.DiscoveryInterval, q, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	// Let in-flight analysis and notification work finish before exiting.
	logger.Info("draining work queue")
	q.Drain()

	logger.Info("goodbye")
	return nil
}
