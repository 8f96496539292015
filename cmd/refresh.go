package cmd

import (
	"fmt"
	"io"
	"time"

	"mod-catalog-mirror/logger"
	"mod-catalog-mirror/refresh"
	"mod-catalog-mirror/ui"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// maxReportedRecordErrors caps how many skipped records the summary lists.
const maxReportedRecordErrors = 5

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refreshes the local mod catalog",
	Long: `Runs one refresh cycle: depending on MOD_REFRESH the catalog is
downloaded from Thunderstore, read from the cache file, or left alone, and
then imported into the database in a single transaction.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		useTUI, _ := cmd.Flags().GetBool("tui")

		a := bootstrap(configDir)
		defer a.close()

		p, err := a.newPipeline(force)
		if err != nil {
			logger.Log.Fatalw("Failed to set up refresh", zap.Error(err))
		}

		if useTUI {
			runRefreshTUI(cmd.Context(), p)
			return
		}

		logger.Log.Info("Running refresh command...")
		report, err := p.Run(cmd.Context())
		if err != nil {
			logger.Log.Fatalw("Refresh failed", "kind", errorKind(err), zap.Error(err))
		}
		printReport(cmd.OutOrStdout(), report)
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().BoolP("force", "f", false, "Download the catalog regardless of MOD_REFRESH")
	refreshCmd.Flags().Bool("tui", false, "Show progress in an interactive view")
}

// printReport writes the summary of a finished cycle.
func printReport(w io.Writer, report refresh.Report) {
	if report.Decision == refresh.Skip {
		fmt.Fprintln(w, ui.Muted.Render("Refresh skipped: MOD_REFRESH is none"))
		return
	}

	res := report.Result
	fmt.Fprintf(w, "%s Catalog imported from %s in %s\n",
		ui.Check(), report.Source, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Mods:       %s inserted, %s updated\n",
		humanize.Comma(int64(res.ModsInserted)), humanize.Comma(int64(res.ModsUpdated)))
	fmt.Fprintf(w, "  Categories: %s created\n", humanize.Comma(int64(res.CategoriesCreated)))
	fmt.Fprintf(w, "  Links:      %s\n", humanize.Comma(int64(res.LinksWritten)))

	if res.RecordsSkipped == 0 {
		return
	}
	fmt.Fprintln(w, ui.Warning.Render(fmt.Sprintf("  Skipped:    %d malformed %s",
		res.RecordsSkipped, plural(res.RecordsSkipped, "record", "records"))))
	for i, recErr := range report.RecordErrors {
		if i == maxReportedRecordErrors {
			fmt.Fprintf(w, "    ... and %d more\n", len(report.RecordErrors)-i)
			break
		}
		fmt.Fprintf(w, "    %s\n", recErr.Error())
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
