package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// File paths
	FeedsCSVPath string `yaml:"-"`
	DBPath       string `yaml:"db_path"`

	// Server settings
	ServerHost string `yaml:"host"`
	ServerPort int    `yaml:"port"`
	APIKey     string `yaml:"-"`

	// Processing settings
	WorkerCount int           `yaml:"workers"`
	Interval    time.Duration `yaml:"-"`

	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Inference InferenceConfig `yaml:"inference"`

	// Log settings
	LogLevel zerolog.Level `yaml:"-"`
}

// PipelineConfig tunes the ingestion run itself.
type PipelineConfig struct {
	// RecencyWindow is the maximum age an entry may have to be processed.
	RecencyWindowHours int `yaml:"recency_window_hours"`
	// MaxEntriesPerFeed caps how many recent entries one feed contributes per run.
	MaxEntriesPerFeed int `yaml:"max_entries_per_feed"`
	// MinExtractWords is the word threshold below which the extractor
	// escalates past feed-embedded text to page scraping.
	MinExtractWords int `yaml:"min_extract_words"`
	// MinNormalizedWords is the threshold below which normalized text is
	// replaced by the "content too short" sentinel.
	MinNormalizedWords int `yaml:"min_normalized_words"`
	// DropUndated skips entries whose publish timestamp cannot be parsed
	// instead of stamping them with the ingestion time.
	DropUndated bool `yaml:"drop_undated"`
}

// InferenceConfig describes the annotation sidecar serving the
// summarization, sentiment and NER models.
type InferenceConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// RecencyWindow returns the recency window as a duration.
func (p PipelineConfig) RecencyWindow() time.Duration {
	return time.Duration(p.RecencyWindowHours) * time.Hour
}

// DefaultConfig returns an initial configuration with hardcoded defaults.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		FeedsCSVPath: DefaultFeedsCSVPath,
		DBPath:       DefaultDBPath,
		ServerHost:   DefaultServerHost,
		ServerPort:   DefaultServerPort,
		APIKey:       GetEnvString("NEWSLOOM_API_KEY", ""),
		WorkerCount:  DefaultWorkerCount,
		Interval:     time.Duration(DefaultInterval) * time.Minute,
		Pipeline: PipelineConfig{
			RecencyWindowHours: DefaultRecencyWindowHours,
			MaxEntriesPerFeed:  DefaultMaxEntriesPerFeed,
			MinExtractWords:    DefaultMinExtractWords,
			MinNormalizedWords: DefaultMinNormalizedWords,
		},
		Inference: InferenceConfig{
			URL:    GetEnvString("NEWSLOOM_INFERENCE_URL", DefaultInferenceURL),
			APIKey: GetEnvString("NEWSLOOM_INFERENCE_API_KEY", ""),
		},
		LogLevel: logLevel,
	}
}

// LoadSettings overlays an optional YAML settings file onto the config.
// A missing file at the default path is not an error; an explicitly
// requested file that cannot be read or parsed is.
func (c *Config) LoadSettings(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultSettingsPath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			log.Debug().Str("path", path).Msg("No settings file, using defaults")
			return nil
		}
		return fmt.Errorf("read settings file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse settings file %s: %w", path, err)
	}

	c.applyFloors()
	log.Info().Str("path", path).Msg("Loaded settings file")
	return nil
}

func (c *Config) applyFloors() {
	if c.Pipeline.RecencyWindowHours <= 0 {
		c.Pipeline.RecencyWindowHours = DefaultRecencyWindowHours
	}
	if c.Pipeline.MaxEntriesPerFeed <= 0 {
		c.Pipeline.MaxEntriesPerFeed = DefaultMaxEntriesPerFeed
	}
	if c.Pipeline.MinExtractWords <= 0 {
		c.Pipeline.MinExtractWords = DefaultMinExtractWords
	}
	if c.Pipeline.MinNormalizedWords <= 0 {
		c.Pipeline.MinNormalizedWords = DefaultMinNormalizedWords
	}
	if c.Inference.URL == "" {
		c.Inference.URL = DefaultInferenceURL
	}
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
