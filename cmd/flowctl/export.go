package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"freelanceflow/internal/export"
)

var (
	flagKind     string
	flagPageSize int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print a paginated transactions or plan report",
	Example: `  flowctl export --kind transactions > transactions.txt
  flowctl export --kind plan --user alice`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagKind, "kind", "k", "transactions", "Report kind: transactions or plan")
	exportCmd.Flags().IntVar(&flagPageSize, "page-size", 0, "Lines per page (0 for the default)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	d, err := loadWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	owner := d.Profile.Name
	if owner == "" {
		owner = flagUser
	}
	opts := export.ReportOptions{Owner: owner, PageSize: flagPageSize, Generated: time.Now()}

	switch flagKind {
	case "transactions":
		opts.Title = "Transactions"
		return export.WriteTransactions(cmd.OutOrStdout(), d.Transactions, opts)
	case "plan":
		opts.Title = "Financial plan"
		return export.WritePlan(cmd.OutOrStdout(), d.FinancialPlan, opts)
	default:
		return fmt.Errorf("unknown report kind %q", flagKind)
	}
}
