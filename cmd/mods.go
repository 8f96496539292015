package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"mod-catalog-mirror/db"
	"mod-catalog-mirror/logger"
	"mod-catalog-mirror/ui"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: "Lists mirrored mods, most recently updated first",
	Long: `Lists mods from the local mirror. Deprecated and NSFW mods are hidden
unless asked for. With --user, mods that user already rated are hidden.`,
	Run: func(cmd *cobra.Command, args []string) {
		excluded, _ := cmd.Flags().GetStringSlice("exclude-category")
		nsfw, _ := cmd.Flags().GetBool("nsfw")
		deprecated, _ := cmd.Flags().GetBool("deprecated")
		limit, _ := cmd.Flags().GetInt("limit")
		username, _ := cmd.Flags().GetString("user")

		a := bootstrap(configDir)
		defer a.close()

		user, err := resolveUser(cmd.Context(), a.db, username)
		if err != nil {
			logger.Log.Fatalw("Unknown user", zap.String("user", username), zap.Error(err))
		}

		opts := db.ModQueryOptions{
			ExcludedCategories: excluded,
			IncludeDeprecated:  deprecated,
			IncludeNSFW:        nsfw,
			Limit:              limit,
			UnratedBy:          user.ID,
		}
		if err := runMods(cmd.Context(), cmd.OutOrStdout(), a.db, opts, time.Now()); err != nil {
			logger.Log.Fatalw("Failed to list mods", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(modsCmd)

	modsCmd.Flags().StringSlice("exclude-category", nil, "Hide mods in this category (repeatable)")
	modsCmd.Flags().Bool("nsfw", false, "Include NSFW mods")
	modsCmd.Flags().Bool("deprecated", false, "Include deprecated mods")
	modsCmd.Flags().IntP("limit", "n", db.DefaultModQueryOptions().Limit, "Maximum number of mods")
	modsCmd.Flags().StringP("user", "u", "", "Hide mods this user has rated")
}

func runMods(ctx context.Context, w io.Writer, gdb *gorm.DB, opts db.ModQueryOptions, now time.Time) error {
	mods, err := db.QueryMods(ctx, gdb, opts)
	if err != nil {
		return err
	}
	return printMods(ctx, w, gdb, mods, now)
}

// printMods writes one row per mod with its categories.
func printMods(ctx context.Context, w io.Writer, gdb *gorm.DB, mods []db.Mod, now time.Time) error {
	if len(mods) == 0 {
		fmt.Fprintln(w, ui.Muted.Render("No mods found."))
		return nil
	}

	ids := make([]uuid.UUID, len(mods))
	for i, m := range mods {
		ids[i] = m.ID
	}
	categories, err := db.ModCategoryNames(ctx, gdb, ids)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, ui.Title.Render(fmt.Sprintf("%-32s %-20s %7s  %-16s %s", "Mod", "Owner", "Rating", "Updated", "Categories")))
	for _, m := range mods {
		name := truncate(m.Name, 32)
		if m.Deprecated {
			name = truncate(m.Name, 29) + " †"
		}
		fmt.Fprintf(w, "%-32s %-20s %7s  %-16s %s\n",
			name,
			truncate(m.Owner, 20),
			ui.Score(m.Rating),
			humanize.RelTime(m.UpdatedDate, now, "ago", "from now"),
			strings.Join(categories[m.ID], ", "),
		)
	}
	return nil
}
