package cmd

import (
	"context"
	"fmt"
	"io"

	"mod-catalog-mirror/db"
	"mod-catalog-mirror/logger"
	"mod-catalog-mirror/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manages the users that own ratings",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Creates a user",
	Long: `Creates a user that can own ratings. Passwords are managed by the
registration flow; --password-hash stores an already computed hash as is.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		hash, _ := cmd.Flags().GetString("password-hash")

		a := bootstrap(configDir)
		defer a.close()

		if err := runUserAdd(cmd.Context(), cmd.OutOrStdout(), a.db, args[0], hash); err != nil {
			logger.Log.Fatalw("Failed to create user", zap.String("user", args[0]), zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)

	userAddCmd.Flags().String("password-hash", "", "Precomputed password hash to store")
}

func runUserAdd(ctx context.Context, w io.Writer, gdb *gorm.DB, username, passwordHash string) error {
	user, err := db.CreateUser(ctx, gdb, username, passwordHash)
	if err != nil {
		return err
	}
	logger.Log.Infow("User created", "user", user.Username, "id", user.ID)
	fmt.Fprintf(w, "%s Created user %s\n", ui.Check(), user.Username)
	return nil
}
