// Package export renders transactions and plans as paginated text reports
// and mirrors transactions to a Google spreadsheet.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"freelanceflow/internal/core"
)

const (
	DefaultPageSize = 25
	pageBreak       = "\f"
	dateLayout      = "2006-01-02"
)

var ErrNoPlan = errors.New("no financial plan to export")

// ReportOptions control report layout.
type ReportOptions struct {
	Title     string
	Owner     string
	PageSize  int
	Generated time.Time
}

func (o ReportOptions) pageSize() int {
	if o.PageSize <= 0 {
		return DefaultPageSize
	}
	return o.PageSize
}

func (o ReportOptions) header(w io.Writer, title string, page, pages int) {
	if o.Title != "" {
		title = o.Title
	}
	fmt.Fprintf(w, "%s\n", title)
	if o.Owner != "" {
		fmt.Fprintf(w, "Owner: %s\n", o.Owner)
	}
	if !o.Generated.IsZero() {
		fmt.Fprintf(w, "Generated: %s\n", o.Generated.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "Page %d/%d\n\n", page, pages)
}

// WriteTransactions writes txs, newest first, as a table split into pages of
// opts.PageSize rows. Pages are separated by a form feed and the last page
// carries the totals.
func WriteTransactions(w io.Writer, txs []core.Transaction, opts ReportOptions) error {
	rows := core.RecentTransactions(txs)
	size := opts.pageSize()
	pages := (len(rows) + size - 1) / size
	if pages == 0 {
		pages = 1
	}

	income, expense := totals(rows)
	for page := 1; page <= pages; page++ {
		if page > 1 {
			if _, err := io.WriteString(w, pageBreak); err != nil {
				return err
			}
		}
		opts.header(w, "Transactions", page, pages)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Date\tType\tSource\tAmount\tTags\t")
		start := (page - 1) * size
		end := min(start+size, len(rows))
		for _, tx := range rows[start:end] {
			amount := core.FormatEuros(tx.Amount)
			if !tx.IsIncome() {
				amount = "-" + amount
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
				tx.Date.Format(dateLayout), tx.Type, tx.Source, amount, strings.Join(tx.Tags, ","))
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("write transactions page %d: %w", page, err)
		}

		if page == pages {
			fmt.Fprintf(w, "\nIncome:  %s\nExpense: %s\nNet:     %s\n",
				core.FormatEuros(income), core.FormatEuros(expense), core.FormatEuros(income.Sub(expense)))
		}
	}
	return nil
}

func totals(txs []core.Transaction) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if tx.IsIncome() {
			income = income.Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount)
		}
	}
	return income, expense
}

// WritePlan writes a financial plan as a single page report.
func WritePlan(w io.Writer, plan *core.FinancialPlan, opts ReportOptions) error {
	if plan == nil {
		return ErrNoPlan
	}
	opts.header(w, "Financial plan", 1, 1)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	section := func(name string) { fmt.Fprintf(tw, "%s\t\t\n", name) }
	row := func(label string, v decimal.Decimal) { fmt.Fprintf(tw, "  %s\t%s\t\n", label, core.FormatEuros(v)) }

	fmt.Fprintf(tw, "Calculated\t%s\t\n", plan.CreatedAt.Format(dateLayout))
	fmt.Fprintf(tw, "Days in month\t%d\t\n", plan.DaysInMonth)
	section("Monthly goals")
	row("Income", plan.Income)
	row("Fixed expenses", plan.Expense)
	row("Savings", plan.Savings)
	row("Investment", plan.Investment)
	row("Leisure", plan.Leisure)
	row("Budget limit", plan.BudgetLimit)
	section("Targets")
	row("Weekly spending limit", plan.WeeklySpendingLimit)
	row("Weekly savings", plan.WeeklySavingsTarget)
	row("Daily savings", plan.DailySavingsTarget)
	row("Weekly investment", plan.WeeklyInvestmentTarget)
	row("Minimum daily income", plan.MinDailyIncome)
	section("Outcome")
	row("Current income", plan.CurrentIncome)
	row("Remaining cash", plan.RemainingCash)
	row("Discretionary spending", plan.DiscretionarySpending)

	verdict := "yes"
	if !plan.IsRealistic {
		verdict = "no, goals exceed income"
	}
	fmt.Fprintf(tw, "Realistic\t%s\t\n", verdict)
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}
