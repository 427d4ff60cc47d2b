/*
Package config handles loading, validating and saving vidrank configuration.

Configuration is layered with koanf: built-in defaults, then the YAML file
(~/.vidrank.yaml or --config), then environment variables. Environment keys
use the VIDRANK_ prefix and a double underscore for nesting, so
VIDRANK_SERVER__ADDR overrides server.addr.

Example:

	catalog:
	  path: videos.csv
	  source: csv
	  invalid_rows: reject
	classifier:
	  kind: process
	  command: python3
	  args: ["model_server.py", "--model", "rf.pkl"]
	  timeout: 30s
	server:
	  addr: ":8080"
	storage:
	  retention: 2160h
	scheduler:
	  cleanup_cron: "@daily"
	log:
	  level: info
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration.
type Config struct {
	Catalog    CatalogConfig    `koanf:"catalog"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Server     ServerConfig     `koanf:"server"`
	Storage    StorageConfig    `koanf:"storage"`
	Scheduler  SchedulerConfig  `koanf:"scheduler"`
	Log        LogConfig        `koanf:"log"`
}

// CatalogConfig selects where the catalog comes from.
type CatalogConfig struct {
	// Path is the CSV file read when Source is "csv".
	Path string `koanf:"path"`

	// Source is "csv" or "sqlite" (the snapshot written by catalog import).
	Source string `koanf:"source"`

	// InvalidRows is "reject" or "skip".
	InvalidRows string `koanf:"invalid_rows"`
}

// ClassifierConfig configures the prediction stage.
type ClassifierConfig struct {
	Kind            string            `koanf:"kind"`
	Command         string            `koanf:"command"`
	Args            []string          `koanf:"args"`
	Env             map[string]string `koanf:"env"`
	Timeout         time.Duration     `koanf:"timeout"`
	BatchSize       int               `koanf:"batch_size"`
	BreakerFailures uint32            `koanf:"breaker_failures"`
	BreakerCooldown time.Duration     `koanf:"breaker_cooldown"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is requests per RateLimitWindow per client IP. Zero disables it.
	RateLimit       int           `koanf:"rate_limit"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// StorageConfig configures the SQLite database.
type StorageConfig struct {
	// DBPath defaults to ~/.vidrank/vidrank.db.
	DBPath         string        `koanf:"db_path"`
	HistoryEnabled bool          `koanf:"history_enabled"`
	Retention      time.Duration `koanf:"retention"`
}

// SchedulerConfig holds cron specs. An empty spec disables the job.
type SchedulerConfig struct {
	CleanupCron string `koanf:"cleanup_cron"`
	ReloadCron  string `koanf:"reload_cron"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Catalog sources.
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Source:      SourceCSV,
			InvalidRows: "reject",
		},
		Classifier: ClassifierConfig{
			Timeout:         30 * time.Second,
			BatchSize:       512,
			BreakerFailures: 3,
			BreakerCooldown: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       120,
			RateLimitWindow: time.Minute,
		},
		Storage: StorageConfig{
			HistoryEnabled: true,
			Retention:      90 * 24 * time.Hour,
		},
		Scheduler: SchedulerConfig{
			CleanupCron: "@daily",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// GetDefaultConfigPath returns the path to ~/.vidrank.yaml
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".vidrank.yaml"), nil
}
