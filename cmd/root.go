package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// configDir is where LoadConfig looks for the .env file.
var configDir string

var rootCmd = &cobra.Command{
	Use:   "mod-catalog-mirror",
	Short: "Keeps a local mirror of the Thunderstore mod catalog",
	Long: `Mirrors the Thunderstore mod catalog into a local SQLite database.

Running without a subcommand performs one refresh cycle, following the
MOD_REFRESH policy.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// Runs the refresh command by default
		refreshCmd.SetContext(cmd.Context())
		refreshCmd.Run(refreshCmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing the .env file")
}

// Execute runs the root command. Interrupts cancel the running command's
// context; an interrupted refresh rolls back.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
