package core

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

const (
	TierFree     PlanTier = "free"
	TierPro      PlanTier = "pro"
	TierUltimate PlanTier = "ultimate"
)

type (
	TransactionType string
	TaskPriority    string
	PlanTier        string

	// Transaction is a single income or expense entry. Source holds the
	// client for incomes and the category for expenses.
	Transaction struct {
		ID     string          `json:"id"`
		Type   TransactionType `json:"type"`
		Amount decimal.Decimal `json:"amount"`
		Source string          `json:"source"`
		Date   time.Time       `json:"date"`
		Tags   []string        `json:"tags,omitempty"`
		Notes  string          `json:"notes,omitempty"`
	}

	Pot struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Percentage decimal.Decimal `json:"percentage"`
		Balance    decimal.Decimal `json:"balance"`
	}

	Task struct {
		ID           string       `json:"id"`
		Title        string       `json:"title"`
		Priority     TaskPriority `json:"priority"`
		DueDate      time.Time    `json:"dueDate"`
		Status       TaskStatus   `json:"status"`
		ReminderSet  bool         `json:"reminderSet,omitempty"`
		ReminderDate *time.Time   `json:"reminderDate,omitempty"`
	}

	Profile struct {
		Name        string           `json:"name"`
		Age         *int             `json:"age"`
		MonthlyGoal *decimal.Decimal `json:"monthlyGoal"`
		Photo       string           `json:"photo,omitempty"`
		Badges      []string         `json:"badges"`
	}

	// UserData is the whole per-user aggregate. It is persisted as one
	// document and rewritten in full after every change.
	UserData struct {
		Transactions  []Transaction  `json:"transactions"`
		Pots          []Pot          `json:"pots"`
		Profile       Profile        `json:"profile"`
		Tier          PlanTier       `json:"plan"`
		XP            int            `json:"xp"`
		Tasks         []Task         `json:"tasks"`
		FinancialPlan *FinancialPlan `json:"financialPlan"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrEmptySource       = errors.New("empty source")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyTitle        = errors.New("empty title")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidPercentage = errors.New("percentage out of range")
	ErrPercentageCap     = errors.New("total pot percentage exceeds cap")
	ErrUnknownStatus     = errors.New("unknown task status")
	ErrInvalidTier       = errors.New("invalid plan tier")
	ErrInvalidAge        = errors.New("invalid age")
	ErrInvalidGoal       = errors.New("invalid goal")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (t PlanTier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierUltimate:
		return true
	}
	return false
}

// Rank orders tiers from free upwards; unknown tiers rank below free.
func (t PlanTier) Rank() int {
	switch t {
	case TierFree:
		return 0
	case TierPro:
		return 1
	case TierUltimate:
		return 2
	}
	return -1
}

func (tx Transaction) Validate() error {
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if !tx.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(tx.Source) == "" {
		return ErrEmptySource
	}
	if len(tx.Source) > 200 {
		return errors.New("source too long (max 200 characters)")
	}
	if tx.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsIncome reports whether the transaction credits the account.
func (tx Transaction) IsIncome() bool { return tx.Type == Income }

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	if t.DueDate.IsZero() {
		return ErrInvalidDate
	}
	if !t.Status.Valid() {
		return ErrUnknownStatus
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Age != nil && (*p.Age < 0 || *p.Age > 150) {
		return ErrInvalidAge
	}
	if p.MonthlyGoal != nil && p.MonthlyGoal.IsNegative() {
		return ErrInvalidGoal
	}
	return nil
}

// HasBadge reports whether the profile already carries the named badge.
func (p Profile) HasBadge(name string) bool {
	return slices.Contains(p.Badges, name)
}

// Clone returns a deep copy so callers can mutate the result and discard it
// on failure without touching the original.
func (d UserData) Clone() UserData {
	out := d
	out.Transactions = make([]Transaction, len(d.Transactions))
	for i, tx := range d.Transactions {
		tx.Tags = slices.Clone(tx.Tags)
		out.Transactions[i] = tx
	}
	out.Pots = slices.Clone(d.Pots)
	out.Tasks = make([]Task, len(d.Tasks))
	for i, t := range d.Tasks {
		if t.ReminderDate != nil {
			rd := *t.ReminderDate
			t.ReminderDate = &rd
		}
		out.Tasks[i] = t
	}
	out.Profile.Badges = slices.Clone(d.Profile.Badges)
	if d.Profile.Age != nil {
		age := *d.Profile.Age
		out.Profile.Age = &age
	}
	if d.Profile.MonthlyGoal != nil {
		goal := *d.Profile.MonthlyGoal
		out.Profile.MonthlyGoal = &goal
	}
	if d.FinancialPlan != nil {
		plan := *d.FinancialPlan
		out.FinancialPlan = &plan
	}
	return out
}

// TransactionIndex returns the position of the transaction with the given id, or -1.
func (d UserData) TransactionIndex(id string) int {
	return slices.IndexFunc(d.Transactions, func(tx Transaction) bool { return tx.ID == id })
}

func (d UserData) PotIndex(id string) int {
	return slices.IndexFunc(d.Pots, func(p Pot) bool { return p.ID == id })
}

func (d UserData) TaskIndex(id string) int {
	return slices.IndexFunc(d.Tasks, func(t Task) bool { return t.ID == id })
}
