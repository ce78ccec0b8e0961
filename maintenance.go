package main

import (
	"os"

	"github.com/billingcat/leadboard/controller"
	"github.com/billingcat/leadboard/model"
	"github.com/spf13/cobra"
)

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Remove dead API tokens and purge deleted leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		logger := controller.NewLogger(store.Config.Mode, os.Stdout)
		return model.RunMaintenance(cmd.Context(), store, logger)
	},
}
