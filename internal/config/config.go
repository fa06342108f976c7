package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the jobwatch daemon.
type Config struct {
	PollingInterval   time.Duration
	DiscoveryInterval time.Duration
	DatabasePath      string
	Board             BoardConfig
	Queue             QueueConfig
	Analysis          AnalysisConfig
	Notification      NotificationConfig
	RateLimit         RateLimitConfig
}

// BoardConfig controls the job board API client.
type BoardConfig struct {
	BaseURL string        // defaults to the public Ashby job board API
	Timeout time.Duration // per-request timeout
}

// QueueConfig bounds the analysis work queue.
type QueueConfig struct {
	Capacity      int // max pending work items before Enqueue rejects
	MaxConcurrent int // max work items processed at once
}

// AnalysisConfig controls the LLM match scoring layer.
type AnalysisConfig struct {
	Enabled        bool
	MatchThreshold float64       // 0-100; matches require score >= threshold
	ChunkDelay     time.Duration // pause between provider calls within a batch
	ProfilePath    string        // candidate profile text file
	Mistral        MistralConfig
}

// MistralConfig holds the Mistral API client settings.
type MistralConfig struct {
	BaseURL     string // defaults to https://api.mistral.ai/v1
	APIKey      string // expanded from env var by Load
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration // per-request timeout
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type    string `yaml:"type"`    // "log" or "slack"
	Token   string `yaml:"token"`   // bot token, required if type is "slack"
	Channel string `yaml:"channel"` // channel id or name, required if type is "slack"
}

// RateLimitConfig controls board-level rate limiting.
type RateLimitConfig struct {
	MinDelay time.Duration // minimum gap between requests to the same board
}

const (
	defaultAshbyBaseURL   = "https://api.ashbyhq.com/posting-api/job-board"
	defaultMistralBaseURL = "https://api.mistral.ai/v1"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations
// as strings).
type rawConfig struct {
	PollingInterval   string             `yaml:"polling_interval"`
	DiscoveryInterval string             `yaml:"discovery_interval"`
	DatabasePath      string             `yaml:"database_path"`
	Board             rawBoardConfig     `yaml:"board"`
	Queue             rawQueueConfig     `yaml:"queue"`
	Analysis          rawAnalysisConfig  `yaml:"analysis"`
	Notification      NotificationConfig `yaml:"notification"`
	RateLimit         rawRateLimitConfig `yaml:"rate_limit"`
}

type rawBoardConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

type rawQueueConfig struct {
	Capacity      int `yaml:"capacity"`
	MaxConcurrent int `yaml:"max_concurrent"`
}

type rawAnalysisConfig struct {
	Enabled        bool             `yaml:"enabled"`
	MatchThreshold float64          `yaml:"match_threshold"`
	ChunkDelay     string           `yaml:"chunk_delay"`
	ProfilePath    string           `yaml:"profile_path"`
	Mistral        rawMistralConfig `yaml:"mistral"`
}

type rawMistralConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

// Load reads and parses the YAML config file at path, applies defaults,
// validates, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	pollingInterval, err := parseDuration(raw.PollingInterval, "polling_interval", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	discoveryInterval, err := parseDuration(raw.DiscoveryInterval, "discovery_interval", time.Hour)
	if err != nil {
		return nil, err
	}
	boardTimeout, err := parseDuration(raw.Board.Timeout, "board.timeout", 30*time.Second)
	if err != nil {
		return nil, err
	}
	chunkDelay, err := parseDuration(raw.Analysis.ChunkDelay, "analysis.chunk_delay", time.Second)
	if err != nil {
		return nil, err
	}
	mistralTimeout, err := parseDuration(raw.Analysis.Mistral.Timeout, "analysis.mistral.timeout", 120*time.Second)
	if err != nil {
		return nil, err
	}
	rateLimitDelay, err := parseDuration(raw.RateLimit.MinDelay, "rate_limit.min_delay", 2*time.Second)
	if err != nil {
		return nil, err
	}

	databasePath := raw.DatabasePath
	if databasePath == "" {
		databasePath = "jobwatch.db"
	}

	boardBaseURL := raw.Board.BaseURL
	if boardBaseURL == "" {
		boardBaseURL = defaultAshbyBaseURL
	}

	capacity := raw.Queue.Capacity
	if capacity == 0 {
		capacity = 100
	}
	maxConcurrent := raw.Queue.MaxConcurrent
	if maxConcurrent == 0 {
		maxConcurrent = 3
	}

	threshold := raw.Analysis.MatchThreshold
	if threshold == 0 {
		threshold = 70
	}

	mistralBaseURL := raw.Analysis.Mistral.BaseURL
	if mistralBaseURL == "" {
		mistralBaseURL = defaultMistralBaseURL
	}
	mistralModel := raw.Analysis.Mistral.Model
	if mistralModel == "" {
		mistralModel = "mistral-small-latest"
	}
	maxTokens := raw.Analysis.Mistral.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4000
	}
	temperature := raw.Analysis.Mistral.Temperature
	if temperature == 0 {
		temperature = 0.1
	}

	notificationType := raw.Notification.Type
	if notificationType == "" {
		notificationType = "log"
	}

	cfg := &Config{
		PollingInterval:   pollingInterval,
		DiscoveryInterval: discoveryInterval,
		DatabasePath:      databasePath,
		Board: BoardConfig{
			BaseURL: boardBaseURL,
			Timeout: boardTimeout,
		},
		Queue: QueueConfig{
			Capacity:      capacity,
			MaxConcurrent: maxConcurrent,
		},
		Analysis: AnalysisConfig{
			Enabled:        raw.Analysis.Enabled,
			MatchThreshold: threshold,
			ChunkDelay:     chunkDelay,
			ProfilePath:    raw.Analysis.ProfilePath,
			Mistral: MistralConfig{
				BaseURL:     mistralBaseURL,
				APIKey:      raw.Analysis.Mistral.APIKey,
				Model:       mistralModel,
				MaxTokens:   maxTokens,
				Temperature: temperature,
				Timeout:     mistralTimeout,
			},
		},
		Notification: NotificationConfig{
			Type:    notificationType,
			Token:   raw.Notification.Token,
			Channel: raw.Notification.Channel,
		},
		RateLimit: RateLimitConfig{
			MinDelay: rateLimitDelay,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseDuration parses a duration string, using def when the value is empty.
func parseDuration(value, field string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if cfg.PollingInterval <= 0 {
		return fmt.Errorf("polling_interval must be positive, got %v", cfg.PollingInterval)
	}
	if cfg.DiscoveryInterval <= 0 {
		return fmt.Errorf("discovery_interval must be positive, got %v", cfg.DiscoveryInterval)
	}
	if cfg.Queue.Capacity < 1 {
		return fmt.Errorf("queue.capacity must be at least 1, got %d", cfg.Queue.Capacity)
	}
	if cfg.Queue.MaxConcurrent < 1 {
		return fmt.Errorf("queue.max_concurrent must be at least 1, got %d", cfg.Queue.MaxConcurrent)
	}
	if cfg.Analysis.MatchThreshold < 0 || cfg.Analysis.MatchThreshold > 100 {
		return fmt.Errorf("analysis.match_threshold must be between 0 and 100, got %v", cfg.Analysis.MatchThreshold)
	}

	if cfg.Notification.Type != "log" && cfg.Notification.Type != "slack" {
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}
	if cfg.Notification.Type == "slack" {
		if cfg.Notification.Token == "" {
			return fmt.Errorf("notification.token is required when type is \"slack\"")
		}
		if cfg.Notification.Channel == "" {
			return fmt.Errorf("notification.channel is required when type is \"slack\"")
		}
	}

	if cfg.Analysis.Enabled {
		if cfg.Analysis.Mistral.APIKey == "" {
			return fmt.Errorf("analysis.mistral.api_key is required when analysis.enabled is true")
		}
		if cfg.Analysis.ProfilePath == "" {
			return fmt.Errorf("analysis.profile_path is required when analysis.enabled is true")
		}
	}

	return nil
}
