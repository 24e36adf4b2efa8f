package main

import (
	"fmt"

	"github.com/jonathan/hired/internal/observability"
	"github.com/jonathan/hired/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres tables for sessions and users",
	Long:  `Apply the embedded schema to DATABASE_URL. Safe to run repeatedly.`,
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	pg, err := store.OpenPostgres(cmd.Context(), cfg.Store.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = pg.Close() }()

	if err := pg.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	observability.Logger().Info("schema applied")
	fmt.Fprintln(cmd.OutOrStdout(), "Database schema is up to date")
	return nil
}
