package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"freelanceflow/internal/cli"
	"freelanceflow/internal/core"
)

var (
	flagIncome     string
	flagExpense    string
	flagSavings    string
	flagInvestment string
	flagLeisure    string
	flagLimit      string
	flagDate       string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute weekly and daily targets from monthly goals",
	Example: `  flowctl plan --income 3000 --expense 1200 --savings 400 --limit 1500
  flowctl plan --income 2500,50 --date 2025-02-01`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&flagIncome, "income", "", "Monthly income goal")
	planCmd.Flags().StringVar(&flagExpense, "expense", "", "Monthly fixed expenses")
	planCmd.Flags().StringVar(&flagSavings, "savings", "", "Monthly savings goal")
	planCmd.Flags().StringVar(&flagInvestment, "investment", "", "Monthly investment goal")
	planCmd.Flags().StringVar(&flagLeisure, "leisure", "", "Monthly leisure budget")
	planCmd.Flags().StringVar(&flagLimit, "limit", "", "Monthly spending limit")
	planCmd.Flags().StringVar(&flagDate, "date", "", "Plan for the month containing this day (YYYY-MM-DD)")
	rootCmd.AddCommand(planCmd)
}

func planGoals() (core.PlanGoals, error) {
	var g core.PlanGoals
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"income", flagIncome, &g.Income},
		{"expense", flagExpense, &g.Expense},
		{"savings", flagSavings, &g.Savings},
		{"investment", flagInvestment, &g.Investment},
		{"leisure", flagLeisure, &g.Leisure},
		{"limit", flagLimit, &g.BudgetLimit},
	} {
		v, err := core.ParseGoal(f.raw)
		if err != nil {
			return g, fmt.Errorf("--%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return g, g.Validate()
}

func planDay() (time.Time, error) {
	if flagDate == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", flagDate, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date: %w", core.ErrInvalidDate)
	}
	return t, nil
}

func runPlan(cmd *cobra.Command, _ []string) error {
	g, err := planGoals()
	if err != nil {
		return err
	}
	day, err := planDay()
	if err != nil {
		return err
	}
	p := core.CalculatePlan(g, decimal.Zero, day)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderTitle("Financial plan "+day.Format("January 2006")))
	fmt.Fprint(out, cli.RenderPlan(p))
	return nil
}
