package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
polling_interval: 5m
discovery_interval: 30m
database_path: /tmp/jobs.db
queue:
  capacity: 50
  max_concurrent: 2
analysis:
  enabled: false
  match_threshold: 80
notification:
  type: log
rate_limit:
  min_delay: 3s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollingInterval != 5*time.Minute {
		t.Errorf("PollingInterval = %v, want 5m", cfg.PollingInterval)
	}
	if cfg.DiscoveryInterval != 30*time.Minute {
		t.Errorf("DiscoveryInterval = %v, want 30m", cfg.DiscoveryInterval)
	}
	if cfg.DatabasePath != "/tmp/jobs.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.Queue.Capacity != 50 || cfg.Queue.MaxConcurrent != 2 {
		t.Errorf("Queue = %+v", cfg.Queue)
	}
	if cfg.Analysis.MatchThreshold != 80 {
		t.Errorf("MatchThreshold = %v", cfg.Analysis.MatchThreshold)
	}
	if cfg.RateLimit.MinDelay != 3*time.Second {
		t.Errorf("MinDelay = %v", cfg.RateLimit.MinDelay)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollingInterval != 10*time.Minute {
		t.Errorf("PollingInterval = %v, want default 10m", cfg.PollingInterval)
	}
	if cfg.DiscoveryInterval != time.Hour {
		t.Errorf("DiscoveryInterval = %v, want default 1h", cfg.DiscoveryInterval)
	}
	if cfg.DatabasePath != "jobwatch.db" {
		t.Errorf("DatabasePath = %q, want default", cfg.DatabasePath)
	}
	if cfg.Board.BaseURL != defaultAshbyBaseURL {
		t.Errorf("Board.BaseURL = %q", cfg.Board.BaseURL)
	}
	if cfg.Queue.Capacity != 100 || cfg.Queue.MaxConcurrent != 3 {
		t.Errorf("Queue = %+v, want defaults", cfg.Queue)
	}
	if cfg.Analysis.MatchThreshold != 70 {
		t.Errorf("MatchThreshold = %v, want default 70", cfg.Analysis.MatchThreshold)
	}
	if cfg.Analysis.ChunkDelay != time.Second {
		t.Errorf("ChunkDelay = %v, want default 1s", cfg.Analysis.ChunkDelay)
	}
	if cfg.Analysis.Mistral.BaseURL != defaultMistralBaseURL {
		t.Errorf("Mistral.BaseURL = %q", cfg.Analysis.Mistral.BaseURL)
	}
	if cfg.Notification.Type != "log" {
		t.Errorf("Notification.Type = %q, want default log", cfg.Notification.Type)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_MISTRAL_KEY", "secret-key")
	t.Setenv("TEST_PROFILE", "/tmp/profile.txt")
	cfg, err := Load(writeConfig(t, `
analysis:
  enabled: true
  profile_path: ${TEST_PROFILE}
  mistral:
    api_key: ${TEST_MISTRAL_KEY}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analysis.Mistral.APIKey != "secret-key" {
		t.Errorf("APIKey = %q, want expanded env var", cfg.Analysis.Mistral.APIKey)
	}
	if cfg.Analysis.ProfilePath != "/tmp/profile.txt" {
		t.Errorf("ProfilePath = %q", cfg.Analysis.ProfilePath)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "polling_interval: [broken"))
	if err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "polling_interval: soon"))
	if err == nil {
		t.Fatal("Load: expected error for bad duration")
	}
}

func TestValidate_SlackRequiresTokenAndChannel(t *testing.T) {
	_, err := Load(writeConfig(t, `
notification:
  type: slack
  channel: "#jobs"
`))
	if err == nil {
		t.Fatal("expected error for slack without token")
	}

	_, err = Load(writeConfig(t, `
notification:
  type: slack
  token: xoxb-abc
`))
	if err == nil {
		t.Fatal("expected error for slack without channel")
	}
}

func TestValidate_AnalysisRequiresKeyAndProfile(t *testing.T) {
	_, err := Load(writeConfig(t, `
analysis:
  enabled: true
  profile_path: /tmp/profile.txt
`))
	if err == nil {
		t.Fatal("expected error for analysis without api key")
	}
}

func TestValidate_ThresholdRange(t *testing.T) {
	_, err := Load(writeConfig(t, `
analysis:
  match_threshold: 150
`))
	if err == nil {
		t.Fatal("expected error for threshold above 100")
	}
}

func TestValidate_UnknownNotifierType(t *testing.T) {
	_, err := Load(writeConfig(t, `
notification:
  type: pager
`))
	if err == nil {
		t.Fatal("expected error for unknown notifier type")
	}
}
