// Command leadboard serves the admin lead table and its companion tools.
//
// Usage:
//
//	leadboard serve --config config.toml
//	leadboard migrate
//	leadboard export --role data_analyst --query acme --out leads.xlsx
//	leadboard token create --user 1 --name ci
//	leadboard maintenance
package main

import (
	"fmt"
	"os"

	"github.com/billingcat/leadboard/controller"
	"github.com/billingcat/leadboard/model"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "leadboard",
	Short: "leadboard serves the admin lead table",
	Long: `leadboard renders the admin lead table: free-text search, paging and
role dependent columns over a lead list from the local database or an
upstream REST API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(maintenanceCmd)
}

// openStore loads the configuration and opens the database.
func openStore() (*model.Store, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot load configuration: %w", err)
	}
	store, err := model.InitDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	return store, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := controller.NewLogger("production", os.Stderr)
		logger.Error("leadboard failed", "error", err)
		os.Exit(1)
	}
}
