package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Expected sqlite backend, got %s", cfg.Store.Backend)
	}
	if cfg.Store.Path != "docvault.db" {
		t.Errorf("Expected docvault.db, got %s", cfg.Store.Path)
	}
	if cfg.Retention.Limit != 0 {
		t.Errorf("Expected unlimited retention, got %d", cfg.Retention.Limit)
	}
	if cfg.Retention.MaxRetries != 3 {
		t.Errorf("Expected 3 retries, got %d", cfg.Retention.MaxRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Expected default backend, got %s", cfg.Store.Backend)
	}
}

func TestLoadFromTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docvault.toml")
	content := `
[store]
backend = "file"
dir = "/var/lib/docvault"

[retention]
limit = 10

[log]
level = "debug"
pretty = false

[metrics]
addr = ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("Expected file backend, got %s", cfg.Store.Backend)
	}
	if cfg.Store.Dir != "/var/lib/docvault" {
		t.Errorf("Expected custom dir, got %s", cfg.Store.Dir)
	}
	if cfg.Retention.Limit != 10 {
		t.Errorf("Expected retention limit 10, got %d", cfg.Retention.Limit)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Pretty {
		t.Errorf("Log config did not load: %+v", cfg.Log)
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Errorf("Expected metrics addr, got %s", cfg.Metrics.Addr)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Retention.MaxRetries != 3 {
		t.Errorf("Expected default retries, got %d", cfg.Retention.MaxRetries)
	}
	if cfg.Watch.DebounceMs != 500 {
		t.Errorf("Expected default debounce, got %d", cfg.Watch.DebounceMs)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown backend",
			content: "[store]\nbackend = \"redis\"\n",
			wantErr: "store backend",
		},
		{
			name:    "dynamodb without table",
			content: "[store]\nbackend = \"dynamodb\"\n",
			wantErr: "store.table",
		},
		{
			name:    "negative retention",
			content: "[retention]\nlimit = -1\n",
			wantErr: "retention.limit",
		},
		{
			name:    "bad log level",
			content: "[log]\nlevel = \"verbose\"\n",
			wantErr: "log level",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "docvault.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOCVAULT_STORE_BACKEND", "memory")
	t.Setenv("DOCVAULT_LOG_LEVEL", "warn")
	t.Setenv("DOCVAULT_RETENTION_LIMIT", "25")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Expected env backend override, got %s", cfg.Store.Backend)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected env level override, got %s", cfg.Log.Level)
	}
	if cfg.Retention.Limit != 25 {
		t.Errorf("Expected env retention override, got %d", cfg.Retention.Limit)
	}
}
