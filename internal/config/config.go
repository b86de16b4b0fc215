// Package config handles configuration loading and validation for docvault.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds the complete docvault configuration.
type Config struct {
	// Store configuration for version persistence.
	Store StoreConfig `toml:"store"`

	// Retention configuration for version history limits.
	Retention RetentionConfig `toml:"retention"`

	// Watch configuration for the file watcher.
	Watch WatchConfig `toml:"watch"`

	// Log configuration.
	Log LogConfig `toml:"log"`

	// Metrics configuration for the observability endpoint.
	Metrics MetricsConfig `toml:"metrics"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is the storage backend: "memory", "file", "sqlite", or "dynamodb".
	Backend string `toml:"backend"`

	// Path is the SQLite database file (for the sqlite backend).
	Path string `toml:"path"`

	// Dir is the segment directory (for the file backend).
	Dir string `toml:"dir"`

	// Table is the DynamoDB table name (for the dynamodb backend).
	Table string `toml:"table"`
}

// RetentionConfig bounds how much history is kept per document.
type RetentionConfig struct {
	// Limit is the number of versions to keep per document.
	// Zero keeps everything.
	Limit int `toml:"limit"`

	// MaxRetries is the number of times a write is retried after a
	// version-number conflict.
	MaxRetries int `toml:"max_retries"`
}

// WatchConfig holds file watching configuration.
type WatchConfig struct {
	// DebounceMs is the debounce interval in milliseconds. A changed file
	// must be quiet for this duration before a version is captured.
	DebounceMs int `toml:"debounce_ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool `toml:"pretty"`
}

// MetricsConfig holds the metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the listen address for the metrics and health endpoint,
	// e.g. ":9090". Empty disables the endpoint.
	Addr string `toml:"addr"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    "docvault.db",
			Dir:     ".docvault",
		},
		Retention: RetentionConfig{
			Limit:      0,
			MaxRetries: 3,
		},
		Watch: WatchConfig{
			DebounceMs: 500,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load reads configuration from the specified path. If the file doesn't
// exist, it returns the default configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = "docvault.toml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("decode TOML: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "file", "sqlite", "dynamodb":
	default:
		return fmt.Errorf("unsupported store backend %q (want memory, file, sqlite, or dynamodb)", c.Store.Backend)
	}

	if c.Store.Backend == "sqlite" && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for the sqlite backend")
	}
	if c.Store.Backend == "file" && c.Store.Dir == "" {
		return fmt.Errorf("store.dir is required for the file backend")
	}
	if c.Store.Backend == "dynamodb" && c.Store.Table == "" {
		return fmt.Errorf("store.table is required for the dynamodb backend")
	}

	if c.Retention.Limit < 0 {
		return fmt.Errorf("retention.limit must not be negative, got %d", c.Retention.Limit)
	}
	if c.Retention.MaxRetries < 0 {
		return fmt.Errorf("retention.max_retries must not be negative, got %d", c.Retention.MaxRetries)
	}
	if c.Watch.DebounceMs <= 0 {
		return fmt.Errorf("watch.debounce_ms must be positive, got %d", c.Watch.DebounceMs)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q (want debug, info, warn, or error)", c.Log.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides. Variables are
// prefixed with DOCVAULT_ and use underscores.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCVAULT_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("DOCVAULT_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("DOCVAULT_STORE_DIR"); v != "" {
		c.Store.Dir = v
	}
	if v := os.Getenv("DOCVAULT_STORE_TABLE"); v != "" {
		c.Store.Table = v
	}
	if v := os.Getenv("DOCVAULT_RETENTION_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retention.Limit = n
		}
	}
	if v := os.Getenv("DOCVAULT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DOCVAULT_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
}
