// Package storetest holds behaviour checks shared by every storage backend.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"freelanceflow/internal/core"
	"freelanceflow/internal/storage"
)

// Run exercises a fresh store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("user data", func(t *testing.T) { testUserData(t, newStore(t)) })
	t.Run("accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
	t.Run("activity", func(t *testing.T) { testActivity(t, newStore(t)) })
	t.Run("checkouts", func(t *testing.T) { testCheckouts(t, newStore(t)) })
}

func testUserData(t *testing.T, s storage.Store) {
	ctx := context.Background()

	if _, found, err := s.LoadUserData(ctx, "nobody"); err != nil || found {
		t.Fatalf("LoadUserData(missing) = found %v, err %v", found, err)
	}

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	data := core.NewUserData("Ada", now)
	data.XP = 42
	data.Tier = core.TierPro
	plan := core.CalculatePlan(core.PlanGoals{Income: decimal.NewFromInt(5000)}, decimal.NewFromInt(100), now)
	plan.ID = "plan-1"
	data.FinancialPlan = &plan

	if err := s.SaveUserData(ctx, "u1", data); err != nil {
		t.Fatalf("SaveUserData: %v", err)
	}
	got, found, err := s.LoadUserData(ctx, "u1")
	if err != nil || !found {
		t.Fatalf("LoadUserData = found %v, err %v", found, err)
	}
	if got.XP != 42 || got.Tier != core.TierPro || got.Profile.Name != "Ada" {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if len(got.Transactions) != len(data.Transactions) || !got.Transactions[0].Amount.Equal(data.Transactions[0].Amount) {
		t.Fatalf("transactions differ: %+v", got.Transactions)
	}
	if got.FinancialPlan == nil || got.FinancialPlan.ID != "plan-1" || !got.FinancialPlan.Income.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("plan differs: %+v", got.FinancialPlan)
	}

	// Full overwrite: the second save replaces everything.
	data.Transactions = nil
	data.XP = 7
	if err := s.SaveUserData(ctx, "u1", data); err != nil {
		t.Fatalf("SaveUserData overwrite: %v", err)
	}
	got, _, _ = s.LoadUserData(ctx, "u1")
	if got.XP != 7 || len(got.Transactions) != 0 {
		t.Fatalf("overwrite not applied: xp=%d transactions=%d", got.XP, len(got.Transactions))
	}
}

func testAccounts(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := storage.User{ID: "u1", Email: "Ada@Example.com", Name: "Ada", PasswordHash: "hash", CreatedAt: time.UnixMilli(1700000000000).UTC()}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	dup := u
	dup.ID = "u2"
	dup.Email = "ada@example.com"
	if err := s.CreateUser(ctx, dup); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("duplicate email: got %v, want ErrDuplicate", err)
	}

	got, err := s.UserByEmail(ctx, "ADA@example.com")
	if err != nil || got.ID != "u1" || got.Name != "Ada" {
		t.Fatalf("UserByEmail = %+v, %v", got, err)
	}
	if _, err := s.UserByID(ctx, "u1"); err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if _, err := s.UserByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("UserByID(missing) = %v, want ErrNotFound", err)
	}
}

func testSessions(t *testing.T, s storage.Store) {
	ctx := context.Background()
	now := time.UnixMilli(1700000000000).UTC()
	live := storage.Session{Token: "live", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	dead := storage.Session{Token: "dead", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(-time.Minute)}
	for _, sess := range []storage.Session{live, dead} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	got, err := s.SessionByToken(ctx, "live")
	if err != nil || got.UserID != "u1" || !got.ExpiresAt.Equal(live.ExpiresAt) {
		t.Fatalf("SessionByToken = %+v, %v", got, err)
	}

	n, err := s.DeleteExpiredSessions(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpiredSessions = %d, %v", n, err)
	}
	if _, err := s.SessionByToken(ctx, "dead"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expired session still present: %v", err)
	}

	if err := s.DeleteSession(ctx, "live"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.SessionByToken(ctx, "live"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("deleted session still present: %v", err)
	}
}

func testActivity(t *testing.T, s storage.Store) {
	ctx := context.Background()
	base := time.UnixMilli(1700000000000).UTC()
	for i, typ := range []string{"transaction.added", "pot.created", "task.status"} {
		a := storage.Activity{
			ID:         typ,
			UserID:     "u1",
			Type:       typ,
			Payload:    json.RawMessage(`{"n":1}`),
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.AppendActivity(ctx, a); err != nil {
			t.Fatalf("AppendActivity: %v", err)
		}
	}
	// Redelivery of the same event is ignored.
	if err := s.AppendActivity(ctx, storage.Activity{ID: "pot.created", UserID: "u1", Type: "pot.created", OccurredAt: base}); err != nil {
		t.Fatalf("AppendActivity duplicate: %v", err)
	}
	if err := s.AppendActivity(ctx, storage.Activity{ID: "other", UserID: "u2", Type: "x", OccurredAt: base}); err != nil {
		t.Fatalf("AppendActivity other user: %v", err)
	}

	list, err := s.ListActivity(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	if list[0].Type != "task.status" || list[2].Type != "transaction.added" {
		t.Fatalf("not newest first: %v, %v", list[0].Type, list[2].Type)
	}
	if string(list[0].Payload) != `{"n":1}` {
		t.Fatalf("payload = %s", list[0].Payload)
	}

	limited, _ := s.ListActivity(ctx, "u1", 2)
	if len(limited) != 2 {
		t.Fatalf("limit not applied: %d", len(limited))
	}
}

func testCheckouts(t *testing.T, s storage.Store) {
	ctx := context.Background()
	if done, err := s.CheckoutProcessed(ctx, "cs_1"); err != nil || done {
		t.Fatalf("unmarked checkout = %v, %v", done, err)
	}
	first, err := s.MarkCheckoutProcessed(ctx, "cs_1", "u1")
	if err != nil || !first {
		t.Fatalf("first mark = %v, %v", first, err)
	}
	again, err := s.MarkCheckoutProcessed(ctx, "cs_1", "u1")
	if err != nil || again {
		t.Fatalf("second mark = %v, %v", again, err)
	}
	if done, err := s.CheckoutProcessed(ctx, "cs_1"); err != nil || !done {
		t.Fatalf("marked checkout = %v, %v", done, err)
	}
}
