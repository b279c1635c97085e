package core

import (
	"errors"
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	now := time.Now()
	good := Transaction{Type: Income, Amount: d("10"), Source: "Client A", Date: now}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Type: "REFUND", Amount: d("10"), Source: "a", Date: now}, ErrInvalidType},
		{Transaction{Type: Expense, Amount: d("0"), Source: "a", Date: now}, ErrInvalidAmount},
		{Transaction{Type: Expense, Amount: d("-3"), Source: "a", Date: now}, ErrInvalidAmount},
		{Transaction{Type: Expense, Amount: d("3"), Source: " ", Date: now}, ErrEmptySource},
		{Transaction{Type: Expense, Amount: d("3"), Source: "a"}, ErrInvalidDate},
	}
	for i, tc := range cases {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Errorf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestTaskValidate(t *testing.T) {
	good := newTask(StatusPending)
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Priority = "URGENT"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
	bad = good
	bad.Title = ""
	if err := bad.Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestProfileValidate(t *testing.T) {
	age := -1
	if err := (Profile{Name: "x", Age: &age}).Validate(); !errors.Is(err, ErrInvalidAge) {
		t.Fatalf("expected ErrInvalidAge, got %v", err)
	}
	if err := (Profile{}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestNewUserData(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	data := NewUserData("", now)

	if data.Profile.Name != DefaultProfileName {
		t.Errorf("name = %q", data.Profile.Name)
	}
	if data.Tier != TierFree || data.XP != 0 || data.FinancialPlan != nil {
		t.Errorf("unexpected defaults: tier=%s xp=%d plan=%v", data.Tier, data.XP, data.FinancialPlan)
	}
	if len(data.Transactions) != 4 || len(data.Pots) != 1 {
		t.Fatalf("seed sizes: %d transactions, %d pots", len(data.Transactions), len(data.Pots))
	}
	if !data.Pots[0].Percentage.Equal(d("25")) {
		t.Errorf("pot percentage = %s", data.Pots[0].Percentage)
	}
	if !data.Profile.HasBadge(NewMemberBadge) {
		t.Error("missing new member badge")
	}
	for _, tx := range data.Transactions {
		if err := tx.Validate(); err != nil {
			t.Errorf("seed transaction %s invalid: %v", tx.Source, err)
		}
	}
}

func TestUserDataClone(t *testing.T) {
	orig := NewUserData("Ada", time.Now())
	c := orig.Clone()
	c.Transactions[0].Tags[0] = "changed"
	c.Pots[0].Balance = d("99")
	c.Profile.Badges[0] = "changed"
	*c.Profile.MonthlyGoal = d("1")

	if orig.Transactions[0].Tags[0] == "changed" || !orig.Pots[0].Balance.IsZero() ||
		orig.Profile.Badges[0] == "changed" || orig.Profile.MonthlyGoal.Equal(d("1")) {
		t.Fatal("clone shares state with original")
	}
}

func TestNewAnalysisInput(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	data := UserData{}
	for i := 0; i < 20; i++ {
		data.Transactions = append(data.Transactions, tx(Income, "10", base.AddDate(0, 0, i)))
	}
	in := NewAnalysisInput(data)
	if len(in.Transactions) != AnalysisTransactionLimit {
		t.Fatalf("len = %d, want %d", len(in.Transactions), AnalysisTransactionLimit)
	}
	if !in.Transactions[0].Date.Equal(base.AddDate(0, 0, 19)) {
		t.Fatalf("first transaction should be the newest, got %s", in.Transactions[0].Date)
	}
	if !in.Balance.Equal(d("200")) {
		t.Fatalf("balance = %s, want 200", in.Balance)
	}
}

func TestPlanTierRank(t *testing.T) {
	tiers := []PlanTier{TierFree, TierPro, TierUltimate}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Rank() <= tiers[i-1].Rank() {
			t.Errorf("%s should rank above %s", tiers[i], tiers[i-1])
		}
	}
	if PlanTier("gold").Rank() >= TierFree.Rank() {
		t.Error("unknown tier should rank below free")
	}
}
