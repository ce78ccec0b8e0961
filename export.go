package main

import (
	"fmt"
	"os"
	"time"

	"github.com/billingcat/leadboard/controller"
	"github.com/billingcat/leadboard/leadsource"
	"github.com/billingcat/leadboard/leadtable"
	"github.com/spf13/cobra"
)

var (
	exportRole  string
	exportQuery string
	exportUser  string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered lead table to an XLSX file",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportRole, "role", "", "viewer role (data_analyst, sales_executive, growth_manager)")
	exportCmd.Flags().StringVar(&exportQuery, "query", "", "free-text search")
	exportCmd.Flags().StringVar(&exportUser, "user", "", "restrict to leads of this user id")
	exportCmd.Flags().StringVar(&exportOut, "out", "leads.xlsx", "output file")
	_ = exportCmd.MarkFlagRequired("role")
}

func runExport(cmd *cobra.Command, _ []string) error {
	role, err := leadtable.ParseViewerRole(exportRole)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	logger := controller.NewLogger(store.Config.Mode, os.Stderr)
	src, closeSource, err := buildSource(store.Config, store, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	leads, err := src.FetchLeads(cmd.Context(), leadsource.Query{Role: role, SelectedUserID: exportUser})
	if err != nil {
		return fmt.Errorf("fetch leads: %w", err)
	}
	leads = leadtable.Filter(leads, exportQuery)

	f, err := os.Create(exportOut)
	if err != nil {
		return err
	}
	if err = controller.WriteLeadsXLSX(f, leads, role, time.Now()); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d leads to %s\n", len(leads), exportOut)
	return nil
}
