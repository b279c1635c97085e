package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"freelanceflow/internal/cli"
	"freelanceflow/internal/core"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show this month's totals, budget progress and pots",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	d, err := loadWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	now := time.Now()
	s := core.Summarize(d.Transactions, now)

	out := cmd.OutOrStdout()
	title := d.Profile.Name
	if title == "" {
		title = flagUser
	}
	fmt.Fprintln(out, cli.RenderTitle(title+" - "+now.Format("January 2006")))
	fmt.Fprint(out, cli.RenderSummary(s))

	if d.FinancialPlan != nil {
		p := core.Progress(*d.FinancialPlan, s)
		fmt.Fprint(out, cli.RenderTable(cli.Table{
			Title:   "Budget",
			Headers: []string{"", "Actual", "Goal", "%"},
			Rows: [][]string{
				{"Income", cli.Money(p.Income), cli.Money(p.IncomeGoal), p.IncomePercent.String()},
				{"Spent", cli.Money(p.Spent), cli.Money(p.BudgetLimit), p.SpentPercent.String()},
				{"Left", cli.Money(p.RemainingBudget), "", ""},
			},
		}))
	}

	if len(d.Pots) > 0 {
		rows := make([][]string, 0, len(d.Pots))
		for _, pot := range d.Pots {
			rows = append(rows, []string{pot.Name, pot.Percentage.String() + "%", cli.Money(pot.Balance)})
		}
		fmt.Fprint(out, cli.RenderTable(cli.Table{
			Title:   "Pots",
			Headers: []string{"Name", "Share", "Balance"},
			Rows:    rows,
		}))
	}
	return nil
}
