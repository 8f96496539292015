package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultChunkSize     = 150
	DefaultMaxParameters = 32766 // SQLITE_MAX_VARIABLE_NUMBER since 3.32
	DefaultIntervalHours = 24
	DefaultCatalogURL    = "https://thunderstore.io/c/lethal-company/api/v1/package/"
	DefaultUserAgent     = "mod-catalog-mirror/dev (unknown-user)"
)

// RefreshMode is the canonical refresh policy. Legacy spellings are folded
// into one of these values by ParseRefreshMode.
type RefreshMode int

const (
	RefreshNone RefreshMode = iota
	RefreshCacheOnly
	RefreshExpiration
	RefreshAlwaysDownload
)

func (m RefreshMode) String() string {
	switch m {
	case RefreshNone:
		return "none"
	case RefreshCacheOnly:
		return "cache-only"
	case RefreshExpiration:
		return "expiration"
	case RefreshAlwaysDownload:
		return "always-download"
	default:
		return fmt.Sprintf("RefreshMode(%d)", int(m))
	}
}

// ParseRefreshMode resolves a MOD_REFRESH value, including legacy aliases.
func ParseRefreshMode(s string) (RefreshMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return RefreshNone, nil
	case "cache-only":
		return RefreshCacheOnly, nil
	case "expiration", "download-if-expired":
		return RefreshExpiration, nil
	case "always-download":
		return RefreshAlwaysDownload, nil
	default:
		return RefreshNone, fmt.Errorf("not a valid mod refresh option: %q (allowed: expiration, cache-only, none, always-download, download-if-expired)", s)
	}
}

// Config holds all configuration for the application.
// Values are loaded by Viper from a config file and/or environment variables.
type Config struct {
	ModRefresh       string `mapstructure:"MOD_REFRESH"`
	ImportInterval   string `mapstructure:"MOD_IMPORT_INTERVAL_HOURS"`
	LegacyExpiration string `mapstructure:"MOD_EXPIRATION_TIME_HOURS"`
	SQLChunkSize     int    `mapstructure:"SQL_CHUNK_SIZE"`
	SQLMaxParameters int    `mapstructure:"SQL_MAX_PARAMETERS"`
	DataDir          string `mapstructure:"DATA_DIR"`
	DatabasePath     string `mapstructure:"DATABASE_PATH"`
	CacheFile        string `mapstructure:"CACHE_FILE"`
	CatalogURL       string `mapstructure:"CATALOG_URL"`
	UserAgent        string `mapstructure:"USERAGENT"`
	LogLevel         string `mapstructure:"LOG_LEVEL"`
	LogFile          string `mapstructure:"LOG_FILE"`

	RefreshMode     RefreshMode   `mapstructure:"-"` // derived from ModRefresh
	RefreshInterval time.Duration `mapstructure:"-"` // derived from the interval keys
}

var envKeys = []string{
	"MOD_REFRESH",
	"MOD_IMPORT_INTERVAL_HOURS",
	"MOD_EXPIRATION_TIME_HOURS",
	"SQL_CHUNK_SIZE",
	"SQL_MAX_PARAMETERS",
	"DATA_DIR",
	"DATABASE_PATH",
	"CACHE_FILE",
	"CATALOG_URL",
	"USERAGENT",
	"LOG_LEVEL",
	"LOG_FILE",
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)   // Path to look for the config file in
	viper.SetConfigName(".env") // Name of config file (without extension)
	viper.SetConfigType("env")  // REQUIRED if the config file does not have the extension in the name

	vipErr := viper.ReadInConfig()
	if _, ok := vipErr.(viper.ConfigFileNotFoundError); ok {
		slog.Info("Config file (.env) not found, relying on environment variables.")
	} else if vipErr != nil {
		return Config{}, fmt.Errorf("fatal error config file: %w", vipErr)
	}

	viper.AutomaticEnv()
	for _, key := range envKeys {
		if err := viper.BindEnv(key, key); err != nil {
			slog.Warn("Unable to bind env var", "key", key, "error", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %w", err)
	}

	processConfigDefaults(&config)

	if err := resolveRefreshPolicy(&config); err != nil {
		return Config{}, err
	}
	if err := validateAndEnsureDirectories(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// processConfigDefaults fills in every unset value.
func processConfigDefaults(config *Config) {
	if config.ModRefresh == "" {
		config.ModRefresh = "expiration"
		slog.Info("MOD_REFRESH not set, defaulting to expiration")
	}
	if config.SQLChunkSize == 0 {
		config.SQLChunkSize = DefaultChunkSize
	}
	if config.SQLMaxParameters == 0 {
		config.SQLMaxParameters = DefaultMaxParameters
	}
	if config.DataDir == "" {
		config.DataDir = "data"
	}
	if config.DatabasePath == "" {
		config.DatabasePath = filepath.Join(config.DataDir, "db.db")
	}
	if config.CacheFile == "" {
		config.CacheFile = filepath.Join(config.DataDir, "mods_cache.json")
	}
	if config.CatalogURL == "" {
		config.CatalogURL = DefaultCatalogURL
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
		slog.Warn("USERAGENT not set in config or environment, using default.")
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFile == "" {
		config.LogFile = "mod-catalog-mirror.log"
	}
}

// resolveRefreshPolicy collapses MOD_REFRESH and the two interval keys into
// RefreshMode and RefreshInterval. MOD_IMPORT_INTERVAL_HOURS wins over the
// legacy MOD_EXPIRATION_TIME_HOURS.
func resolveRefreshPolicy(config *Config) error {
	mode, err := ParseRefreshMode(config.ModRefresh)
	if err != nil {
		return err
	}
	config.RefreshMode = mode

	raw, key := config.ImportInterval, "MOD_IMPORT_INTERVAL_HOURS"
	if strings.TrimSpace(raw) == "" && strings.TrimSpace(config.LegacyExpiration) != "" {
		raw, key = config.LegacyExpiration, "MOD_EXPIRATION_TIME_HOURS"
		slog.Warn("MOD_EXPIRATION_TIME_HOURS is deprecated, use MOD_IMPORT_INTERVAL_HOURS")
	}

	hours := DefaultIntervalHours
	if strings.TrimSpace(raw) != "" {
		hours, err = strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s is not a valid number: %q", key, raw)
		}
	}
	config.RefreshInterval = time.Duration(hours) * time.Hour

	if config.SQLChunkSize < 0 {
		return fmt.Errorf("SQL_CHUNK_SIZE must be positive, got %d", config.SQLChunkSize)
	}
	if config.SQLMaxParameters < 0 {
		return fmt.Errorf("SQL_MAX_PARAMETERS must be positive, got %d", config.SQLMaxParameters)
	}
	return nil
}

// validateAndEnsureDirectories creates the directories holding the database
// and the cache file.
func validateAndEnsureDirectories(config *Config) error {
	if config.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	dirs := []string{
		config.DataDir,
		filepath.Dir(config.DatabasePath),
		filepath.Dir(config.CacheFile),
	}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			slog.Info("Directory does not exist, creating it", "path", dir)
			if err := os.MkdirAll(dir, 0755); err != nil {
				slog.Error("Failed to create directory", "path", dir, "error", err)
				return err
			}
		} else if err != nil {
			slog.Error("Failed to check directory", "path", dir, "error", err)
			return err
		}
	}
	return nil
}
