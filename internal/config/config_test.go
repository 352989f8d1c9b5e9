package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DBPath != DefaultDBPath {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, DefaultDBPath)
	}
	if cfg.WorkerCount != DefaultWorkerCount {
		t.Errorf("WorkerCount = %d, want %d", cfg.WorkerCount, DefaultWorkerCount)
	}
	if cfg.Pipeline.RecencyWindowHours != DefaultRecencyWindowHours {
		t.Errorf("RecencyWindowHours = %d, want %d", cfg.Pipeline.RecencyWindowHours, DefaultRecencyWindowHours)
	}
	if cfg.Pipeline.MaxEntriesPerFeed != DefaultMaxEntriesPerFeed {
		t.Errorf("MaxEntriesPerFeed = %d, want %d", cfg.Pipeline.MaxEntriesPerFeed, DefaultMaxEntriesPerFeed)
	}
	if cfg.Inference.URL != DefaultInferenceURL {
		t.Errorf("Inference.URL = %q, want %q", cfg.Inference.URL, DefaultInferenceURL)
	}
}

func TestRecencyWindow(t *testing.T) {
	p := PipelineConfig{RecencyWindowHours: 48}
	if got := p.RecencyWindow(); got != 48*time.Hour {
		t.Errorf("RecencyWindow = %v, want 48h", got)
	}
}

func TestLoadSettingsOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
db_path: /data/news.db
port: 9090
workers: 4
pipeline:
  recency_window_hours: 24
  max_entries_per_feed: 10
  drop_undated: true
inference:
  url: http://models:5000
  api_key: secret
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadSettings(path); err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	if cfg.DBPath != "/data/news.db" {
		t.Errorf("DBPath = %q, want overlay value", cfg.DBPath)
	}
	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d, want 4", cfg.WorkerCount)
	}
	if cfg.Pipeline.RecencyWindowHours != 24 {
		t.Errorf("RecencyWindowHours = %d, want 24", cfg.Pipeline.RecencyWindowHours)
	}
	if !cfg.Pipeline.DropUndated {
		t.Error("DropUndated = false, want true from overlay")
	}
	if cfg.Inference.URL != "http://models:5000" || cfg.Inference.APIKey != "secret" {
		t.Errorf("Inference = %+v, want overlay values", cfg.Inference)
	}

	// Keys absent from the file keep their defaults.
	if cfg.Pipeline.MinExtractWords != DefaultMinExtractWords {
		t.Errorf("MinExtractWords = %d, want default retained", cfg.Pipeline.MinExtractWords)
	}
}

func TestLoadSettingsFloors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
pipeline:
  recency_window_hours: -1
  max_entries_per_feed: 0
inference:
  url: ""
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadSettings(path); err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	if cfg.Pipeline.RecencyWindowHours != DefaultRecencyWindowHours {
		t.Errorf("RecencyWindowHours = %d, want floored to default", cfg.Pipeline.RecencyWindowHours)
	}
	if cfg.Pipeline.MaxEntriesPerFeed != DefaultMaxEntriesPerFeed {
		t.Errorf("MaxEntriesPerFeed = %d, want floored to default", cfg.Pipeline.MaxEntriesPerFeed)
	}
	if cfg.Inference.URL != DefaultInferenceURL {
		t.Errorf("Inference.URL = %q, want floored to default", cfg.Inference.URL)
	}
}

func TestLoadSettingsMissingDefaultPathIsFine(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.LoadSettings(""); err != nil {
		t.Errorf("LoadSettings with absent default file returned error: %v", err)
	}
}

func TestLoadSettingsMissingExplicitPathFails(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.LoadSettings(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadSettings succeeded for missing explicit file, want error")
	}
}

func TestLoadSettingsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("pipeline: [not: a: map"), 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadSettings(path); err == nil {
		t.Error("LoadSettings succeeded for invalid YAML, want error")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("NEWSLOOM_TEST_STR", "hello")
	t.Setenv("NEWSLOOM_TEST_INT", "42")
	t.Setenv("NEWSLOOM_TEST_BAD_INT", "forty-two")
	t.Setenv("NEWSLOOM_TEST_BOOL", "true")
	t.Setenv("NEWSLOOM_TEST_DUR_UNITS", "90s")
	t.Setenv("NEWSLOOM_TEST_DUR_MINUTES", "15")

	if got := GetEnvString("NEWSLOOM_TEST_STR", "fallback"); got != "hello" {
		t.Errorf("GetEnvString = %q, want hello", got)
	}
	if got := GetEnvString("NEWSLOOM_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("GetEnvString unset = %q, want fallback", got)
	}
	if got := GetEnvInt("NEWSLOOM_TEST_INT", 7); got != 42 {
		t.Errorf("GetEnvInt = %d, want 42", got)
	}
	if got := GetEnvInt("NEWSLOOM_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("GetEnvInt invalid = %d, want default 7", got)
	}
	if got := GetEnvBool("NEWSLOOM_TEST_BOOL", false); !got {
		t.Error("GetEnvBool = false, want true")
	}
	if got := GetEnvDuration("NEWSLOOM_TEST_DUR_UNITS", time.Minute); got != 90*time.Second {
		t.Errorf("GetEnvDuration with units = %v, want 90s", got)
	}
	if got := GetEnvDuration("NEWSLOOM_TEST_DUR_MINUTES", time.Minute); got != 15*time.Minute {
		t.Errorf("GetEnvDuration bare number = %v, want 15m", got)
	}
}

func TestGetEnvLogLevel(t *testing.T) {
	t.Setenv("NEWSLOOM_TEST_LEVEL", "debug")
	t.Setenv("NEWSLOOM_TEST_BAD_LEVEL", "loud")

	if got := GetEnvLogLevel("NEWSLOOM_TEST_LEVEL", zerolog.InfoLevel); got != zerolog.DebugLevel {
		t.Errorf("GetEnvLogLevel = %v, want debug", got)
	}
	if got := GetEnvLogLevel("NEWSLOOM_TEST_BAD_LEVEL", zerolog.WarnLevel); got != zerolog.WarnLevel {
		t.Errorf("GetEnvLogLevel invalid = %v, want default warn", got)
	}
	if got := GetEnvLogLevel("NEWSLOOM_TEST_LEVEL_UNSET", zerolog.ErrorLevel); got != zerolog.ErrorLevel {
		t.Errorf("GetEnvLogLevel unset = %v, want default error", got)
	}
}
