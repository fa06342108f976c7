package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jobwatch/internal/adapter"
	"jobwatch/internal/ai"
	"jobwatch/internal/config"
	"jobwatch/internal/model"
	"jobwatch/internal/notifier"
	"jobwatch/internal/poller"
	"jobwatch/internal/ratelimit"
	"jobwatch/internal/retry"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobwatch",
	Short: "Job board watcher — new postings, scored and delivered",
	Long:  "Jobwatch polls employers' Ashby job boards, detects newly published postings, scores them against your profile, and notifies you of matches.",
	// Default to `start` so that `jobwatch` with no args runs the daemon.
	// This preserves compatibility with systemd unit files that invoke the binary directly.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBWATCH_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBWATCH_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBWATCH_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// discardLogger is used where a TUI owns the terminal — any log output
// before the alt-screen starts corrupts the display.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier", "channel", cfg.Notification.Channel)
		return notifier.NewSlackNotifier(notifier.DefaultSlackAPIURL, cfg.Notification.Token, cfg.Notification.Channel, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// setupAnalyzer builds the match analyzer from config. When analysis is
// disabled every new posting passes through as a match, so notifications
// still fire.
func setupAnalyzer(cfg *config.Config, logger *slog.Logger) (model.MatchAnalyzer, error) {
	if !cfg.Analysis.Enabled {
		logger.Info("analysis disabled, all new postings will be treated as matches")
		return ai.NewNopAnalyzer(), nil
	}

	profileBytes, err := os.ReadFile(cfg.Analysis.ProfilePath)
	if err != nil {
		return nil, err
	}
	profile := strings.TrimSpace(string(profileBytes))

	m := cfg.Analysis.Mistral
	provider := ai.NewMistralProvider(
		m.BaseURL,
		m.APIKey,
		m.Model,
		m.MaxTokens,
		m.Temperature,
		&http.Client{Timeout: m.Timeout},
	)
	logger.Info("analyzer configured", "model", m.Model, "threshold", cfg.Analysis.MatchThreshold)
	return ai.NewBatchAnalyzer(provider, ai.MatchAnalysisTemplate, profile, cfg.Analysis.MatchThreshold, cfg.Analysis.ChunkDelay, logger), nil
}

// buildFetcher assembles the fetch chain for one employer:
// board adapter → retry → board-level rate limit.
func buildFetcher(cfg *config.Config, employer model.Employer, limiter *ratelimit.BoardRateLimiter, httpClient *http.Client, logger *slog.Logger) model.SnapshotFetcher {
	var fetcher model.SnapshotFetcher = adapter.NewAshbyAdapter(cfg.Board.BaseURL, employer.ExternalID, httpClient)
	fetcher = retry.NewRetryFetcher(fetcher, 2, 5*time.Second, logger)
	return ratelimit.NewRateLimitedFetcher(fetcher, limiter, employer.ExternalID)
}

// buildPollerFactory returns the factory the scheduler calls as employers are
// discovered. All employers share one rate limiter and one HTTP client.
func buildPollerFactory(cfg *config.Config, st model.SnapshotStore, q poller.Enqueuer, httpClient *http.Client, logger *slog.Logger) func(model.Employer) *poller.EmployerPoller {
	limiter := ratelimit.NewBoardRateLimiter(cfg.RateLimit.MinDelay)
	return func(employer model.Employer) *poller.EmployerPoller {
		fetcher := buildFetcher(cfg, employer, limiter, httpClient, logger)
		return poller.NewEmployerPoller(employer, fetcher, st, q, logger)
	}
}
