package main

import (
	"fmt"

	"github.com/billingcat/leadboard/model"
	"github.com/spf13/cobra"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the PostgreSQL schema migrations",
	Long: `Apply the embedded PostgreSQL schema migrations to the database of the
configured mode. SQLite databases are migrated automatically when opened.

This command needs a binary built with -tags postgres.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := model.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("cannot load configuration: %w", err)
		}
		return runMigrations(cfg, migrateDown)
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back all migrations")
}
