package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"mod-catalog-mirror/cache"
	"mod-catalog-mirror/config"
	"mod-catalog-mirror/db"
	"mod-catalog-mirror/logger"
	"mod-catalog-mirror/refresh"
	"mod-catalog-mirror/thunderstore"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app is what every command gets from bootstrap.
type app struct {
	cfg   config.Config
	db    *gorm.DB
	cache *cache.FileStore
}

// bootstrap handles shared initialization logic for commands.
func bootstrap(dir string) *app {
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		// The logger is not set up yet.
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		logger.Log.Fatalw("Failed to open database", zap.Error(err))
	}
	logger.Log.Infow("Database initialized", zap.String("path", cfg.DatabasePath))

	return &app{
		cfg:   cfg,
		db:    gdb,
		cache: cache.NewOSFileStore(cfg.CacheFile),
	}
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Sync()
}

// newPipeline wires a refresh cycle. force overrides MOD_REFRESH with
// always-download.
func (a *app) newPipeline(force bool) (*refresh.Pipeline, error) {
	client, err := thunderstore.NewClient(a.cfg)
	if err != nil {
		return nil, err
	}
	p := refresh.New(a.cfg, a.cache, client, a.db, logger.Log)
	if force {
		p.Mode = config.RefreshAlwaysDownload
	}
	return p, nil
}

// errorKind names the class of a failed cycle for logs and exit messages.
func errorKind(err error) string {
	var (
		cfgErr       *refresh.ConfigurationError
		transportErr *refresh.TransportError
		storeErr     *refresh.StoreError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &storeErr):
		return "store"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}

// resolveUser maps a --user flag to a stored user. An empty name is no user.
func resolveUser(ctx context.Context, gdb *gorm.DB, username string) (db.User, error) {
	if username == "" {
		return db.User{}, nil
	}
	return db.FindUser(ctx, gdb, username)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) > maxLen {
		return string(r[:maxLen-3]) + "..."
	}
	return s
}
