package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/citybeat-app/server/internal/auth"
	"github.com/citybeat-app/server/internal/domain/accounts"
	"github.com/citybeat-app/server/internal/domain/ids"
	"github.com/citybeat-app/server/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long: `Create an admin account directly in the database.

Example:
  server create-admin --name "Ops" --email ops@example.com --password changeme123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminEmail == "" || adminPassword == "" {
			return fmt.Errorf("--email and --password are required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer pool.Close()

		repo, err := postgres.NewRepository(pool)
		if err != nil {
			return err
		}

		hash, err := auth.HashPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		name := adminName
		if name == "" {
			name = "Admin"
		}
		account := newAdminAccount(name, adminEmail, hash)
		if err := repo.Accounts().Create(ctx, account); err != nil {
			return fmt.Errorf("create admin account: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created admin account %s (%s)\n", account.ULID, account.Email)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "display name (default: Admin)")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "email address (required)")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "password (required)")
}

func newAdminAccount(name, email, passwordHash string) *accounts.Account {
	return &accounts.Account{
		ULID:         ids.MustNewULID(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Admin:        true,
	}
}
