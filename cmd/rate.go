package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"mod-catalog-mirror/db"
	"mod-catalog-mirror/logger"
	"mod-catalog-mirror/ui"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rateCmd = &cobra.Command{
	Use:   "rate <mod-uuid> like|dislike",
	Short: "Rates a mod for a user",
	Long: `Stores a user's rating of a mod, replacing any earlier rating.
Example: mod-catalog-mirror rate 0b6a1a5c-... like --user alice`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		username, _ := cmd.Flags().GetString("user")

		a := bootstrap(configDir)
		defer a.close()

		if err := runRate(cmd.Context(), cmd.OutOrStdout(), a.db, username, args[0], args[1]); err != nil {
			logger.Log.Fatalw("Failed to rate mod", zap.Error(err))
		}
	},
}

var likesCmd = &cobra.Command{
	Use:   "likes",
	Short: "Lists the mods a user liked",
	Run: func(cmd *cobra.Command, args []string) {
		username, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		a := bootstrap(configDir)
		defer a.close()

		if err := runLikes(cmd.Context(), cmd.OutOrStdout(), a.db, username, limit, time.Now()); err != nil {
			logger.Log.Fatalw("Failed to list liked mods", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(likesCmd)

	rateCmd.Flags().StringP("user", "u", "", "User giving the rating")
	_ = rateCmd.MarkFlagRequired("user")

	likesCmd.Flags().StringP("user", "u", "", "User whose likes to list")
	likesCmd.Flags().IntP("limit", "n", 50, "Maximum number of mods")
	_ = likesCmd.MarkFlagRequired("user")
}

func runRate(ctx context.Context, w io.Writer, gdb *gorm.DB, username, modArg, valueArg string) error {
	modID, err := uuid.Parse(modArg)
	if err != nil {
		return fmt.Errorf("invalid mod id %q: %w", modArg, err)
	}
	value, err := db.ParseRatingValue(valueArg)
	if err != nil {
		return err
	}
	user, err := db.FindUser(ctx, gdb, username)
	if err != nil {
		return err
	}

	var mod db.Mod
	if err := gdb.WithContext(ctx).First(&mod, "id = ?", modID).Error; err != nil {
		return fmt.Errorf("mod %s: %w", modID, err)
	}
	if err := db.RateMod(ctx, gdb, mod.ID, user.ID, value); err != nil {
		return err
	}

	logger.Log.Infow("Mod rated", "mod", mod.FullName, "user", user.Username, "rating", value.String())
	fmt.Fprintf(w, "%s %s rated %s: %s\n", ui.Check(), user.Username, mod.Name, value)
	return nil
}

func runLikes(ctx context.Context, w io.Writer, gdb *gorm.DB, username string, limit int, now time.Time) error {
	user, err := db.FindUser(ctx, gdb, username)
	if err != nil {
		return err
	}
	mods, err := db.RatedMods(ctx, gdb, user.ID, db.Like, limit)
	if err != nil {
		return err
	}
	return printMods(ctx, w, gdb, mods, now)
}
