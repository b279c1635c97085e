package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AllocationPolicy bounds pot percentages. A zero TotalCap leaves the sum of
// percentages across pots unbounded.
type AllocationPolicy struct {
	MinPercentage decimal.Decimal
	MaxPercentage decimal.Decimal
	TotalCap      decimal.Decimal
}

func DefaultAllocationPolicy() AllocationPolicy {
	return AllocationPolicy{
		MinPercentage: decimal.NewFromInt(1),
		MaxPercentage: hundred,
	}
}

// ValidatePot checks a candidate pot against the policy and the pots that
// already exist.
func (p AllocationPolicy) ValidatePot(existing []Pot, name string, pct decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if pct.LessThan(p.MinPercentage) || pct.GreaterThan(p.MaxPercentage) {
		return ErrInvalidPercentage
	}
	if p.TotalCap.IsPositive() {
		if TotalPercentage(existing).Add(pct).GreaterThan(p.TotalCap) {
			return ErrPercentageCap
		}
	}
	return nil
}

// TotalPercentage sums the percentages of all pots.
func TotalPercentage(pots []Pot) decimal.Decimal {
	total := decimal.Zero
	for _, p := range pots {
		total = total.Add(p.Percentage)
	}
	return total
}

// Share returns the part of amount that belongs to a pot with the given percentage.
func Share(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// Allocate distributes an income over every pot and returns the updated pots
// together with the total set aside. The input slice is left untouched so
// the update is applied to all pots or none.
func Allocate(pots []Pot, amount decimal.Decimal) ([]Pot, decimal.Decimal) {
	out := make([]Pot, len(pots))
	total := decimal.Zero
	for i, p := range pots {
		inc := Share(amount, p.Percentage)
		p.Balance = p.Balance.Add(inc)
		out[i] = p
		total = total.Add(inc)
	}
	return out, total
}
