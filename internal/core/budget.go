package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeeksPerMonth converts monthly figures to weekly targets.
var WeeksPerMonth = decimal.RequireFromString("4.33")

type (
	// PlanGoals are the monthly figures a user declares when planning.
	PlanGoals struct {
		Income      decimal.Decimal `json:"incomeGoal"`
		Expense     decimal.Decimal `json:"expenseGoal"`
		Savings     decimal.Decimal `json:"savingsGoal"`
		Investment  decimal.Decimal `json:"investmentGoal"`
		Leisure     decimal.Decimal `json:"leisureGoal"`
		BudgetLimit decimal.Decimal `json:"budgetLimit"`
	}

	// FinancialPlan is one planning run. A new run replaces the previous one.
	FinancialPlan struct {
		ID            string          `json:"id"`
		CreatedAt     time.Time       `json:"createdAt"`
		CurrentIncome decimal.Decimal `json:"currentIncome"`
		PlanGoals

		WeeklySpendingLimit    decimal.Decimal `json:"weeklySpendingLimit"`
		WeeklySavingsTarget    decimal.Decimal `json:"weeklySavingsTarget"`
		DailySavingsTarget     decimal.Decimal `json:"dailySavingsTarget"`
		WeeklyInvestmentTarget decimal.Decimal `json:"weeklyInvestmentTarget"`
		MinDailyIncome         decimal.Decimal `json:"minDailyIncome"`
		RemainingCash          decimal.Decimal `json:"remainingCash"`
		DiscretionarySpending  decimal.Decimal `json:"discretionarySpending"`
		IsRealistic            bool            `json:"isRealistic"`
		DaysInMonth            int             `json:"daysInMonth"`
	}

	BudgetProgress struct {
		IncomeGoal      decimal.Decimal `json:"incomeGoal"`
		Income          decimal.Decimal `json:"income"`
		IncomePercent   decimal.Decimal `json:"incomePercent"`
		BudgetLimit     decimal.Decimal `json:"budgetLimit"`
		Spent           decimal.Decimal `json:"spent"`
		SpentPercent    decimal.Decimal `json:"spentPercent"`
		RemainingBudget decimal.Decimal `json:"remainingBudget"`
	}
)

func (g PlanGoals) Validate() error {
	for _, v := range []decimal.Decimal{g.Income, g.Expense, g.Savings, g.Investment, g.Leisure, g.BudgetLimit} {
		if v.IsNegative() {
			return ErrInvalidGoal
		}
	}
	return nil
}

// Outgoings is everything the plan commits to spend or set aside.
func (g PlanGoals) Outgoings() decimal.Decimal {
	return g.Savings.Add(g.Investment).Add(g.Leisure).Add(g.Expense)
}

// CalculatePlan derives weekly and daily targets from monthly goals using the
// real length of now's month. The result has no ID; callers assign one.
func CalculatePlan(g PlanGoals, currentIncome decimal.Decimal, now time.Time) FinancialPlan {
	days := DaysInMonth(now)
	daysD := decimal.NewFromInt(int64(days))

	return FinancialPlan{
		CreatedAt:     now,
		CurrentIncome: currentIncome,
		PlanGoals:     g,

		WeeklySpendingLimit:    g.BudgetLimit.Div(WeeksPerMonth).Round(2),
		WeeklySavingsTarget:    g.Savings.Div(WeeksPerMonth).Round(2),
		DailySavingsTarget:     g.Savings.Div(daysD).Round(2),
		WeeklyInvestmentTarget: g.Investment.Div(WeeksPerMonth).Round(2),
		MinDailyIncome:         g.Income.Div(daysD).Round(2),
		RemainingCash:          g.Income.Sub(g.Outgoings()),
		DiscretionarySpending:  g.Income.Sub(g.Expense.Add(g.Savings).Add(g.Investment)),
		IsRealistic:            g.Income.GreaterThanOrEqual(g.Outgoings()),
		DaysInMonth:            days,
	}
}

// Progress compares the month's actuals with a plan. Percentages are capped at 100.
func Progress(plan FinancialPlan, s MonthlySummary) BudgetProgress {
	remaining := plan.BudgetLimit.Sub(s.Expense)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return BudgetProgress{
		IncomeGoal:      plan.Income,
		Income:          s.Income,
		IncomePercent:   cappedPercent(s.Income, plan.Income),
		BudgetLimit:     plan.BudgetLimit,
		Spent:           s.Expense,
		SpentPercent:    cappedPercent(s.Expense, plan.BudgetLimit),
		RemainingBudget: remaining,
	}
}

func cappedPercent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	p := part.Div(whole).Mul(hundred).Round(1)
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}
