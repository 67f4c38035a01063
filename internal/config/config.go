// Package config provides configuration types, defaults, and persistence
// for vaultindex.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/driftware/vaultindex/internal/log"
	"github.com/driftware/vaultindex/internal/tracing"
)

// Config holds all configuration options for vaultindex.
type Config struct {
	// DBPath is the registry database location.
	// Default: ~/.vaultindex/registry.db
	DBPath string `mapstructure:"db_path"`

	// ManifestPath is the deployment manifest location.
	// Default: ./manifest.yaml
	ManifestPath string `mapstructure:"manifest_path"`

	// WatchDebounce is how long the watch command waits after a manifest
	// change before reloading.
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`

	// Debug enables debug logging to the log file.
	Debug bool `mapstructure:"debug"`

	// LogFile overrides the log destination.
	// Default: ~/.vaultindex/debug.log
	LogFile string `mapstructure:"log_file"`

	// Tracing configures the OpenTelemetry subsystem.
	Tracing tracing.Config `mapstructure:"tracing"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		DBPath:        DefaultDBPath(),
		ManifestPath:  "manifest.yaml",
		WatchDebounce: time.Second,
		Debug:         false,
		LogFile:       DefaultLogFile(),
		Tracing:       tracing.DefaultConfig(),
	}
}

// DefaultDBPath returns ~/.vaultindex/registry.db, falling back to a
// relative path when the home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".vaultindex", "registry.db")
	}
	return filepath.Join(home, ".vaultindex", "registry.db")
}

// DefaultLogFile returns ~/.vaultindex/debug.log, falling back to a
// relative path when the home directory is unknown.
func DefaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".vaultindex", "debug.log")
	}
	return filepath.Join(home, ".vaultindex", "debug.log")
}

// DefaultTracesFilePath returns ~/.vaultindex/traces/traces.jsonl.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".vaultindex", "traces", "traces.jsonl")
	}
	return filepath.Join(home, ".vaultindex", "traces", "traces.jsonl")
}

// Validate checks the configuration for values that cannot work.
func Validate(cfg Config) error {
	if cfg.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if cfg.ManifestPath == "" {
		return fmt.Errorf("manifest_path must not be empty")
	}
	if cfg.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must not be negative")
	}
	if err := ValidateTracing(cfg.Tracing); err != nil {
		return err
	}
	return nil
}

// ValidateTracing checks the tracing section.
func ValidateTracing(cfg tracing.Config) error {
	switch cfg.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be one of none, file, stdout, otlp (got %q)", cfg.Exporter)
	}
	if cfg.SampleRate < 0 || cfg.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1 (got %v)", cfg.SampleRate)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Vaultindex Configuration

# Registry database location (default: ~/.vaultindex/registry.db)
# db_path: /path/to/registry.db

# Deployment manifest location
manifest_path: manifest.yaml

# How long the watch command waits after a manifest change before
# reloading (Go duration string)
watch_debounce: 1s

# Debug logging to the log file
debug: false

# Log destination (default: ~/.vaultindex/debug.log)
# log_file: /path/to/debug.log

# Tracing configuration
tracing:
  enabled: false
  # Exporter: "none", "file", "stdout", or "otlp"
  exporter: file
  # file_path: ~/.vaultindex/traces/traces.jsonl
  # otlp_endpoint: localhost:4317
  sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
