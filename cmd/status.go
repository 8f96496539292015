package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"mod-catalog-mirror/cache"
	"mod-catalog-mirror/config"
	"mod-catalog-mirror/db"
	"mod-catalog-mirror/logger"
	"mod-catalog-mirror/refresh"
	"mod-catalog-mirror/ui"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows the cache, the last import and what the next refresh would do",
	Run: func(cmd *cobra.Command, args []string) {
		a := bootstrap(configDir)
		defer a.close()

		if err := runStatus(cmd.Context(), cmd.OutOrStdout(), a.cfg, a.db, a.cache, time.Now()); err != nil {
			logger.Log.Fatalw("Failed to read status", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(ctx context.Context, w io.Writer, cfg config.Config, gdb *gorm.DB, store cache.Store, now time.Time) error {
	info, err := store.Stat()
	if err != nil {
		return err
	}

	policy := cfg.RefreshMode.String()
	if cfg.RefreshMode == config.RefreshExpiration {
		policy = fmt.Sprintf("%s (every %s)", policy, cfg.RefreshInterval)
	}
	fmt.Fprintf(w, "%s %s\n", ui.Title.Render("Refresh mode:"), policy)

	if info.Exists {
		fmt.Fprintf(w, "%s %s, updated %s\n", ui.Title.Render("Cache:       "),
			humanize.Bytes(uint64(info.Size)), humanize.RelTime(info.ModTime, now, "ago", "from now"))
	} else {
		fmt.Fprintf(w, "%s %s\n", ui.Title.Render("Cache:       "), ui.Muted.Render("none"))
	}

	next, err := refresh.Decide(cfg.RefreshMode, cfg.RefreshInterval, info, now)
	if err != nil {
		fmt.Fprintf(w, "%s %s\n", ui.Title.Render("Next refresh:"), ui.Error.Render(err.Error()))
	} else {
		fmt.Fprintf(w, "%s %s\n", ui.Title.Render("Next refresh:"), next)
	}

	latest, err := db.LatestImport(ctx, gdb)
	if err != nil {
		return err
	}
	if latest == nil {
		fmt.Fprintf(w, "%s %s\n", ui.Title.Render("Last import: "), ui.Muted.Render("never"))
	} else {
		fmt.Fprintf(w, "%s %s from %s (%s inserted, %s updated, %d skipped)\n", ui.Title.Render("Last import: "),
			humanize.RelTime(latest.FinishedAt, now, "ago", "from now"), latest.Source,
			humanize.Comma(int64(latest.ModsInserted)), humanize.Comma(int64(latest.ModsUpdated)), latest.RecordsSkipped)
	}

	var mods, categories int64
	if err := gdb.WithContext(ctx).Model(&db.Mod{}).Count(&mods).Error; err != nil {
		return err
	}
	if err := gdb.WithContext(ctx).Model(&db.Category{}).Count(&categories).Error; err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s mods in %s categories\n", ui.Title.Render("Mirror:      "),
		humanize.Comma(mods), humanize.Comma(categories))
	return nil
}
