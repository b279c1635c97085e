package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"freelanceflow/internal/core"
)

var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle = lipgloss.NewStyle().Foreground(ColorTextMuted)
	goodStyle  = lipgloss.NewStyle().Foreground(ColorGreen)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorOrange)
	badStyle   = lipgloss.NewStyle().Foreground(ColorRed)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorTextDim)
)

// Table is a bordered text table for terminal output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // auto-calculated if nil
}

// RenderTitle renders a centered title bar in a rounded box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}
	row := func(cells []string, style lipgloss.Style) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			if pad < 0 {
				pad = 0
			}
			b.WriteString(style.Render(" " + cell + strings.Repeat(" ", pad) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		row(t.Headers, headerStyle)
		rule("├", "┼", "┤")
	}
	for _, r := range t.Rows {
		row(r, valueStyle)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

// Money formats an amount for display, coloring negatives.
func Money(d decimal.Decimal) string {
	if d.IsNegative() {
		return badStyle.Render(core.FormatEuros(d))
	}
	return core.FormatEuros(d)
}

// RenderPlan lays out a financial plan as a two-column table.
func RenderPlan(p core.FinancialPlan) string {
	verdict := goodStyle.Render("realistic")
	if !p.IsRealistic {
		verdict = warnStyle.Render("over-committed")
	}
	return RenderTable(Table{
		Title:   fmt.Sprintf("Plan (%d-day month)", p.DaysInMonth),
		Headers: []string{"Target", "Amount"},
		Rows: [][]string{
			{"Weekly spending limit", Money(p.WeeklySpendingLimit)},
			{"Weekly savings", Money(p.WeeklySavingsTarget)},
			{"Daily savings", Money(p.DailySavingsTarget)},
			{"Weekly investment", Money(p.WeeklyInvestmentTarget)},
			{"Minimum daily income", Money(p.MinDailyIncome)},
			{"Remaining cash", Money(p.RemainingCash)},
			{"Discretionary spending", Money(p.DiscretionarySpending)},
			{"Verdict", verdict},
		},
	})
}

// RenderSummary lays out month-to-date totals.
func RenderSummary(s core.MonthlySummary) string {
	return RenderTable(Table{
		Title:   "This month",
		Headers: []string{"", "Amount"},
		Rows: [][]string{
			{"Income", Money(s.Income)},
			{"Expenses", Money(s.Expense)},
			{"Net", Money(s.Net)},
			{"Today in", Money(s.TodayIncome)},
			{"Today out", Money(s.TodayExpense)},
			{"Projected income", Money(s.Projection)},
		},
	})
}

// ProgressBar draws a fixed-width bar for a 0-100 percentage.
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	pct = min(max(pct, 0), 100)
	filled := int(pct / 100 * float64(width))
	return goodStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}

// RenderLevel shows a level with its progress toward the next one.
func RenderLevel(info core.LevelInfo) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Level %d", info.Level)))
	if info.Name != "" {
		b.WriteString(" " + valueStyle.Render(info.Name))
	}
	b.WriteString("\n")
	b.WriteString(ProgressBar(info.Progress, 30))
	b.WriteString(mutedStyle.Render(fmt.Sprintf(" %.0f%%  %d XP, %d to next", info.Progress, info.XP, info.XPToNext)))
	b.WriteString("\n")
	return b.String()
}
