package cmd

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"mod-catalog-mirror/config"
	"mod-catalog-mirror/logger"
	"mod-catalog-mirror/refresh"
	"mod-catalog-mirror/thunderstore"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import <catalog.json>",
	Short: "Imports a catalog dump from disk",
	Long: `Replaces the cache file with a catalog dump saved earlier (for example
with curl) and imports it, without contacting Thunderstore.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := bootstrap(configDir)
		defer a.close()

		p, err := a.newPipeline(false)
		if err != nil {
			logger.Log.Fatalw("Failed to set up import", zap.Error(err))
		}
		report, err := importCatalogFile(cmd.Context(), args[0], p)
		if err != nil {
			logger.Log.Fatalw("Import failed", "kind", errorKind(err), zap.Error(err))
		}
		printReport(cmd.OutOrStdout(), report)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

// importCatalogFile seeds p's cache with the dump at path and runs a
// cache-only cycle over it.
func importCatalogFile(ctx context.Context, path string, p *refresh.Pipeline) (refresh.Report, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return refresh.Report{}, fmt.Errorf("failed to read catalog dump: %w", err)
	}
	if err := thunderstore.ValidateEnvelope(payload); err != nil {
		return refresh.Report{}, fmt.Errorf("%s: %w", path, err)
	}

	hash, err := calculateSHA1(path)
	if err != nil {
		return refresh.Report{}, err
	}
	logger.Log.Infow("Importing catalog dump", zap.String("file", path), zap.String("sha1", hash), zap.Int("bytes", len(payload)))

	if err := p.Cache.Write(payload); err != nil {
		return refresh.Report{}, fmt.Errorf("failed to replace cache: %w", err)
	}
	p.Mode = config.RefreshCacheOnly
	return p.Run(ctx)
}

func calculateSHA1(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha1.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
