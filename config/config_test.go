package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestProcessConfigDefaults(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		viper.Reset()
		cfg := Config{}
		processConfigDefaults(&cfg)

		if cfg.ModRefresh != "expiration" {
			t.Errorf("Expected ModRefresh to be expiration, got %s", cfg.ModRefresh)
		}
		if cfg.SQLChunkSize != DefaultChunkSize {
			t.Errorf("Expected SQLChunkSize to be %d, got %d", DefaultChunkSize, cfg.SQLChunkSize)
		}
		if cfg.DatabasePath != filepath.Join("data", "db.db") {
			t.Errorf("Unexpected DatabasePath %s", cfg.DatabasePath)
		}
		if cfg.CacheFile != filepath.Join("data", "mods_cache.json") {
			t.Errorf("Unexpected CacheFile %s", cfg.CacheFile)
		}
		if cfg.UserAgent == "" {
			t.Error("Expected UserAgent to have a default value")
		}
	})

	t.Run("respects existing values", func(t *testing.T) {
		viper.Reset()
		cfg := Config{
			ModRefresh:   "none",
			SQLChunkSize: 10,
			DataDir:      "/srv/mods",
			UserAgent:    "custom-agent",
		}
		processConfigDefaults(&cfg)

		if cfg.ModRefresh != "none" {
			t.Errorf("Expected ModRefresh to stay none, got %s", cfg.ModRefresh)
		}
		if cfg.SQLChunkSize != 10 {
			t.Errorf("Expected SQLChunkSize to stay 10, got %d", cfg.SQLChunkSize)
		}
		if cfg.DatabasePath != filepath.Join("/srv/mods", "db.db") {
			t.Errorf("Expected DatabasePath under DataDir, got %s", cfg.DatabasePath)
		}
		if cfg.UserAgent != "custom-agent" {
			t.Errorf("Expected UserAgent to stay custom-agent, got %s", cfg.UserAgent)
		}
	})
}

func TestParseRefreshMode(t *testing.T) {
	tests := []struct {
		input    string
		expected RefreshMode
		wantErr  bool
	}{
		{"none", RefreshNone, false},
		{"cache-only", RefreshCacheOnly, false},
		{"expiration", RefreshExpiration, false},
		{"download-if-expired", RefreshExpiration, false},
		{"always-download", RefreshAlwaysDownload, false},
		{" Expiration ", RefreshExpiration, false},
		{"sometimes", RefreshNone, true},
		{"", RefreshNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseRefreshMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRefreshMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && mode != tt.expected {
				t.Errorf("ParseRefreshMode(%q) = %s, want %s", tt.input, mode, tt.expected)
			}
		})
	}
}

func TestResolveRefreshPolicy(t *testing.T) {
	t.Run("canonical interval", func(t *testing.T) {
		cfg := Config{ModRefresh: "expiration", ImportInterval: "12", LegacyExpiration: "48"}
		if err := resolveRefreshPolicy(&cfg); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.RefreshInterval != 12*time.Hour {
			t.Errorf("Expected 12h, got %s", cfg.RefreshInterval)
		}
	})

	t.Run("legacy interval alias", func(t *testing.T) {
		cfg := Config{ModRefresh: "download-if-expired", LegacyExpiration: "48"}
		if err := resolveRefreshPolicy(&cfg); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.RefreshMode != RefreshExpiration {
			t.Errorf("Expected expiration mode, got %s", cfg.RefreshMode)
		}
		if cfg.RefreshInterval != 48*time.Hour {
			t.Errorf("Expected 48h, got %s", cfg.RefreshInterval)
		}
	})

	t.Run("default interval", func(t *testing.T) {
		cfg := Config{ModRefresh: "expiration"}
		if err := resolveRefreshPolicy(&cfg); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.RefreshInterval != DefaultIntervalHours*time.Hour {
			t.Errorf("Expected default interval, got %s", cfg.RefreshInterval)
		}
	})

	t.Run("zero interval is accepted", func(t *testing.T) {
		cfg := Config{ModRefresh: "expiration", ImportInterval: "0"}
		if err := resolveRefreshPolicy(&cfg); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.RefreshInterval != 0 {
			t.Errorf("Expected zero interval, got %s", cfg.RefreshInterval)
		}
	})

	t.Run("invalid interval", func(t *testing.T) {
		cfg := Config{ModRefresh: "expiration", ImportInterval: "soon"}
		if err := resolveRefreshPolicy(&cfg); err == nil {
			t.Error("Expected error for non-numeric interval")
		}
	})

	t.Run("invalid mode", func(t *testing.T) {
		cfg := Config{ModRefresh: "weekly"}
		if err := resolveRefreshPolicy(&cfg); err == nil {
			t.Error("Expected error for unknown mode")
		}
	})

	t.Run("negative chunk size", func(t *testing.T) {
		cfg := Config{ModRefresh: "none", SQLChunkSize: -1}
		if err := resolveRefreshPolicy(&cfg); err == nil {
			t.Error("Expected error for negative chunk size")
		}
	})
}

func TestValidateAndEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("missing data dir", func(t *testing.T) {
		cfg := Config{DataDir: ""}
		err := validateAndEnsureDirectories(&cfg)
		if err == nil {
			t.Error("Expected error for missing DataDir")
		}
	})

	t.Run("creates directories", func(t *testing.T) {
		dataDir := filepath.Join(tmpDir, "data")
		cfg := Config{
			DataDir:      dataDir,
			DatabasePath: filepath.Join(dataDir, "db", "db.db"),
			CacheFile:    filepath.Join(dataDir, "cache", "mods_cache.json"),
		}
		err := validateAndEnsureDirectories(&cfg)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		for _, sub := range []string{"db", "cache"} {
			path := filepath.Join(dataDir, sub)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Errorf("Directory %s was not created", sub)
			}
		}
	})
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	viper.Reset()
	dataDir := filepath.Join(t.TempDir(), "data")
	t.Setenv("MOD_REFRESH", "cache-only")
	t.Setenv("MOD_IMPORT_INTERVAL_HOURS", "6")
	t.Setenv("SQL_CHUNK_SIZE", "50")
	t.Setenv("DATA_DIR", dataDir)

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.RefreshMode != RefreshCacheOnly {
		t.Errorf("Expected cache-only, got %s", cfg.RefreshMode)
	}
	if cfg.RefreshInterval != 6*time.Hour {
		t.Errorf("Expected 6h, got %s", cfg.RefreshInterval)
	}
	if cfg.SQLChunkSize != 50 {
		t.Errorf("Expected chunk size 50, got %d", cfg.SQLChunkSize)
	}
	if _, err := os.Stat(dataDir); err != nil {
		t.Errorf("Expected data dir to be created: %v", err)
	}
}
