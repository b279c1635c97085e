package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// MonthlySummary aggregates the transactions of the calendar month that
	// contains the reference instant.
	MonthlySummary struct {
		Income       decimal.Decimal `json:"income"`
		Expense      decimal.Decimal `json:"expense"`
		Net          decimal.Decimal `json:"net"`
		TodayIncome  decimal.Decimal `json:"todayIncome"`
		TodayExpense decimal.Decimal `json:"todayExpense"`
		Projection   decimal.Decimal `json:"projection"`
	}

	MonthTotal struct {
		Year   int             `json:"year"`
		Month  time.Month      `json:"month"`
		Label  string          `json:"label"`
		Income decimal.Decimal `json:"income"`
	}
)

// DaysInMonth returns the number of days of the month containing t.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func sameDay(a, b time.Time) bool {
	return sameMonth(a, b) && a.Day() == b.Day()
}

// Summarize computes month-to-date totals, today's totals and a linear
// end-of-month income projection. Dates are compared in now's location.
func Summarize(txs []Transaction, now time.Time) MonthlySummary {
	s := MonthlySummary{
		Income:       decimal.Zero,
		Expense:      decimal.Zero,
		TodayIncome:  decimal.Zero,
		TodayExpense: decimal.Zero,
		Projection:   decimal.Zero,
	}
	for _, tx := range txs {
		d := tx.Date.In(now.Location())
		if !sameMonth(d, now) {
			continue
		}
		today := sameDay(d, now)
		switch tx.Type {
		case Income:
			s.Income = s.Income.Add(tx.Amount)
			if today {
				s.TodayIncome = s.TodayIncome.Add(tx.Amount)
			}
		case Expense:
			s.Expense = s.Expense.Add(tx.Amount)
			if today {
				s.TodayExpense = s.TodayExpense.Add(tx.Amount)
			}
		}
	}
	s.Net = s.Income.Sub(s.Expense)
	if day := now.Day(); day > 0 {
		s.Projection = s.Income.
			Div(decimal.NewFromInt(int64(day))).
			Mul(decimal.NewFromInt(int64(DaysInMonth(now)))).
			Round(2)
	}
	return s
}

// Balance is the money left on the main account: all incomes minus all
// expenses minus what has been set aside in pots.
func Balance(d UserData) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range d.Transactions {
		switch tx.Type {
		case Income:
			total = total.Add(tx.Amount)
		case Expense:
			total = total.Sub(tx.Amount)
		}
	}
	for _, p := range d.Pots {
		total = total.Sub(p.Balance)
	}
	return total
}

// IncomeSeries returns per-month income totals for the n months ending with
// now's month, oldest first.
func IncomeSeries(txs []Transaction, now time.Time, n int) []MonthTotal {
	if n <= 0 {
		return nil
	}
	first := StartOfMonth(now).AddDate(0, -(n - 1), 0)
	series := make([]MonthTotal, n)
	for i := range series {
		m := first.AddDate(0, i, 0)
		series[i] = MonthTotal{
			Year:   m.Year(),
			Month:  m.Month(),
			Label:  m.Month().String()[:3],
			Income: decimal.Zero,
		}
	}
	for _, tx := range txs {
		if tx.Type != Income {
			continue
		}
		d := tx.Date.In(now.Location())
		idx := (d.Year()-first.Year())*12 + int(d.Month()-first.Month())
		if idx < 0 || idx >= n {
			continue
		}
		series[idx].Income = series[idx].Income.Add(tx.Amount)
	}
	return series
}
