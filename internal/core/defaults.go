package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultProfileName = "Freelancer"
	NewMemberBadge     = "New member"
)

// NewUserData builds the aggregate a new account starts with: a few sample
// transactions dated relative to now, a 25% tax pot and an empty task list.
func NewUserData(name string, now time.Time) UserData {
	if name == "" {
		name = DefaultProfileName
	}
	day := 24 * time.Hour
	goal := decimal.NewFromInt(3000)
	return UserData{
		Transactions: []Transaction{
			{ID: uuid.NewString(), Type: Income, Amount: decimal.NewFromInt(2500), Source: "Client A", Date: now.Add(-2 * day), Tags: []string{"webdev", "react"}},
			{ID: uuid.NewString(), Type: Expense, Amount: decimal.NewFromInt(150), Source: "Software", Date: now.Add(-3 * day), Tags: []string{"saas"}},
			{ID: uuid.NewString(), Type: Expense, Amount: decimal.NewFromInt(800), Source: "Rent", Date: now.Add(-5 * day), Tags: []string{"fixed"}},
			{ID: uuid.NewString(), Type: Income, Amount: decimal.NewFromInt(1200), Source: "Client B", Date: now.Add(-12 * day), Tags: []string{"design"}},
		},
		Pots: []Pot{
			{ID: uuid.NewString(), Name: "Taxes", Percentage: decimal.NewFromInt(25), Balance: decimal.Zero},
		},
		Profile: Profile{
			Name:        name,
			MonthlyGoal: &goal,
			Badges:      []string{NewMemberBadge},
		},
		Tier:  TierFree,
		XP:    0,
		Tasks: []Task{},
	}
}
