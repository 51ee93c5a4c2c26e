package cmd

import (
	"fmt"

	"github.com/citybeat-app/server/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var (
	migrateDownSteps int
	migrationsPath   string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply pending database migrations, or roll back with --down.

Examples:
  # Apply all pending migrations
  server migrate

  # Roll back the most recent migration
  server migrate --down 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		path := migrationsPath
		if path == "" {
			path = postgres.DefaultMigrationsPath
		}

		if migrateDownSteps > 0 {
			if err := postgres.MigrateDown(cfg.Database.URL, path, migrateDownSteps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", migrateDownSteps)
			return nil
		}

		if err := postgres.MigrateUp(cfg.Database.URL, path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateDownSteps, "down", 0, "roll back this many migrations instead of applying")
	migrateCmd.Flags().StringVar(&migrationsPath, "path", "", "migrations directory (default: internal/storage/postgres/migrations)")
}
