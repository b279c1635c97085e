package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"freelanceflow/internal/cache"
	"freelanceflow/internal/config"
	"freelanceflow/internal/core"
	"freelanceflow/internal/events"
	"freelanceflow/internal/storage/memory"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type failingStore struct {
	*memory.Store
	failSave bool
}

func (s *failingStore) SaveUserData(ctx context.Context, userID string, d core.UserData) error {
	if s.failSave {
		return errors.New("disk full")
	}
	return s.Store.SaveUserData(ctx, userID, d)
}

func newTestWorkspace(t *testing.T, opts ...Option) (*Workspace, *recorder) {
	t.Helper()
	rec := &recorder{}
	store := memory.New()
	base := []Option{
		WithPublisher(rec),
		WithClock(func() time.Time { return testNow }),
		WithCheckoutStore(store),
	}
	return NewWorkspace(store, config.DefaultRules(), append(base, opts...)...), rec
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWorkspace_GetSeedsDefaults(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	d, err := ws.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Tier != core.TierFree || d.XP != 0 {
		t.Errorf("tier=%s xp=%d, want free/0", d.Tier, d.XP)
	}
	if len(d.Pots) != 1 || d.Pots[0].Name != "Taxes" {
		t.Errorf("pots = %+v, want one Taxes pot", d.Pots)
	}
	if d.Profile.Name != core.DefaultProfileName || !d.Profile.HasBadge(core.NewMemberBadge) {
		t.Errorf("profile = %+v", d.Profile)
	}

	again, _ := ws.Get(context.Background(), "u1")
	if again.Pots[0].ID != d.Pots[0].ID {
		t.Error("second Get reseeded the workspace")
	}
}

func TestWorkspace_Seed(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()
	if err := ws.Seed(ctx, "u1", "Ada"); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	d, _ := ws.Get(ctx, "u1")
	if d.Profile.Name != "Ada" {
		t.Errorf("name = %q, want Ada", d.Profile.Name)
	}
}

func TestWorkspace_AddIncomeAllocatesAndGrantsXP(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	ctx := context.Background()
	if _, err := ws.AddPot(ctx, "u1", "Savings", dec("10")); err != nil {
		t.Fatalf("AddPot: %v", err)
	}
	rec.reset()

	tx, err := ws.AddTransaction(ctx, "u1", TransactionInput{
		Type:   core.Income,
		Amount: dec("1000"),
		Source: " Client C ",
		Date:   testNow,
		Tags:   []string{"web", "", "web"},
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if tx.Source != "Client C" || len(tx.Tags) != 1 {
		t.Errorf("input not normalized: %+v", tx)
	}

	d, _ := ws.Get(ctx, "u1")
	if d.Transactions[0].ID != tx.ID {
		t.Error("new transaction is not first")
	}
	if d.XP != 50 {
		t.Errorf("xp = %d, want 50", d.XP)
	}
	want := map[string]string{"Taxes": "250", "Savings": "100"}
	for _, p := range d.Pots {
		if !p.Balance.Equal(dec(want[p.Name])) {
			t.Errorf("pot %s balance = %s, want %s", p.Name, p.Balance, want[p.Name])
		}
	}

	types := rec.types()
	if len(types) != 2 || types[0] != events.TransactionAdded || types[1] != events.XPGranted {
		t.Errorf("events = %v", types)
	}
}

func TestWorkspace_AddExpenseLeavesPotsAlone(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	ctx := context.Background()
	_, err := ws.AddTransaction(ctx, "u1", TransactionInput{Type: core.Expense, Amount: dec("40"), Source: "Coffee", Date: testNow})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	d, _ := ws.Get(ctx, "u1")
	if !d.Pots[0].Balance.IsZero() || d.XP != 0 {
		t.Errorf("expense touched pots or xp: %s, %d", d.Pots[0].Balance, d.XP)
	}
	if types := rec.types(); len(types) != 1 || types[0] != events.TransactionAdded {
		t.Errorf("events = %v", types)
	}
}

func TestWorkspace_AddTransactionValidation(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	tests := []struct {
		name string
		in   TransactionInput
		want error
	}{
		{"zero amount", TransactionInput{Type: core.Income, Amount: decimal.Zero, Source: "A", Date: testNow}, core.ErrInvalidAmount},
		{"negative amount", TransactionInput{Type: core.Income, Amount: dec("-5"), Source: "A", Date: testNow}, core.ErrInvalidAmount},
		{"bad type", TransactionInput{Type: "GIFT", Amount: dec("5"), Source: "A", Date: testNow}, core.ErrInvalidType},
		{"blank source", TransactionInput{Type: core.Expense, Amount: dec("5"), Source: "  ", Date: testNow}, core.ErrEmptySource},
		{"no date", TransactionInput{Type: core.Expense, Amount: dec("5"), Source: "A"}, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ws.AddTransaction(context.Background(), "u1", tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !IsValidation(err) {
				t.Error("IsValidation = false")
			}
		})
	}
	if len(rec.types()) != 0 {
		t.Error("rejected input published events")
	}
}

func TestWorkspace_UpdateAndDeleteTransaction(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()
	tx, err := ws.AddTransaction(ctx, "u1", TransactionInput{Type: core.Income, Amount: dec("200"), Source: "A", Date: testNow})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := ws.UpdateTransaction(ctx, "u1", tx.ID, TransactionInput{Type: core.Income, Amount: dec("2000"), Source: "A", Date: testNow})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.ID != tx.ID {
		t.Errorf("id changed: %s", updated.ID)
	}
	d, _ := ws.Get(ctx, "u1")
	// Allocation and XP stay as computed for the original 200.
	if d.XP != 10 || !d.Pots[0].Balance.Equal(dec("50")) {
		t.Errorf("update re-applied effects: xp=%d pot=%s", d.XP, d.Pots[0].Balance)
	}

	if err := ws.DeleteTransaction(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	d, _ = ws.Get(ctx, "u1")
	if d.TransactionIndex(tx.ID) >= 0 {
		t.Error("transaction still present")
	}
	if d.XP != 10 {
		t.Errorf("delete reversed xp: %d", d.XP)
	}

	if err := ws.DeleteTransaction(ctx, "u1", tx.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
	if _, err := ws.UpdateTransaction(ctx, "u1", "missing", TransactionInput{Type: core.Income, Amount: dec("1"), Source: "A", Date: testNow}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing = %v, want ErrNotFound", err)
	}
}

func TestWorkspace_ListTransactionsNewestFirst(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()
	old, _ := ws.AddTransaction(ctx, "u1", TransactionInput{Type: core.Expense, Amount: dec("1"), Source: "Old", Date: testNow.AddDate(-1, 0, 0)})
	list, err := ws.ListTransactions(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if list[len(list)-1].ID != old.ID {
		t.Errorf("oldest transaction not last: %+v", list[len(list)-1])
	}
	for i := 1; i < len(list); i++ {
		if list[i].Date.After(list[i-1].Date) {
			t.Fatalf("not sorted at %d", i)
		}
	}
}

func TestWorkspace_AddPot(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	ctx := context.Background()

	for _, pct := range []string{"0", "100.5", "-5"} {
		if _, err := ws.AddPot(ctx, "u1", "Bad", dec(pct)); !errors.Is(err, core.ErrInvalidPercentage) {
			t.Errorf("pct %s: err = %v, want ErrInvalidPercentage", pct, err)
		}
	}
	if _, err := ws.AddPot(ctx, "u1", " ", dec("10")); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("blank name: %v", err)
	}

	pot, err := ws.AddPot(ctx, "u1", "Holidays", dec("100"))
	if err != nil {
		t.Fatalf("AddPot(100): %v", err)
	}
	if !pot.Balance.IsZero() {
		t.Errorf("new pot balance = %s", pot.Balance)
	}
	if types := rec.types(); len(types) != 1 || types[0] != events.PotCreated {
		t.Errorf("events = %v", types)
	}

	// The free tier holds two pots.
	if _, err := ws.AddPot(ctx, "u1", "Third", dec("1")); !errors.Is(err, ErrTierLimit) {
		t.Fatalf("third pot on free tier: %v", err)
	}

	if err := ws.DeletePot(ctx, "u1", pot.ID); err != nil {
		t.Fatalf("DeletePot: %v", err)
	}
	if _, err := ws.AddPot(ctx, "u1", "Third", dec("1")); err != nil {
		t.Fatalf("AddPot after delete: %v", err)
	}
	if err := ws.DeletePot(ctx, "u1", pot.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeletePot missing = %v", err)
	}
}

func TestWorkspace_AddPotTotalCap(t *testing.T) {
	rules := config.DefaultRules()
	rules.Allocation.TotalCap = dec("100")
	rules.Tiers[core.TierFree] = config.TierRules{Label: "Free"}
	ws := NewWorkspace(memory.New(), rules, WithClock(func() time.Time { return testNow }))

	if _, err := ws.AddPot(context.Background(), "u1", "Rest", dec("75")); err != nil {
		t.Fatalf("AddPot(75): %v", err)
	}
	if _, err := ws.AddPot(context.Background(), "u1", "Over", dec("1")); !errors.Is(err, core.ErrPercentageCap) {
		t.Fatalf("over cap: %v", err)
	}
}

func TestWorkspace_TaskLifecycle(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	ctx := context.Background()
	due := testNow.AddDate(0, 0, 20)

	task, err := ws.AddTask(ctx, "u1", TaskInput{Title: "Invoice ACME", Priority: core.PriorityHigh, DueDate: due})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if task.Status != core.StatusPending {
		t.Errorf("status = %s", task.Status)
	}

	got, _, err := ws.ChangeTaskStatus(ctx, "u1", task.ID, core.StatusInvoiceSent)
	if err != nil {
		t.Fatalf("to INVOICE_SENT: %v", err)
	}
	if !got.ReminderSet || got.ReminderDate == nil || !got.ReminderDate.Equal(due.AddDate(0, 0, -core.ReminderLeadDays)) {
		t.Errorf("reminder not scheduled: %+v", got)
	}
	if types := rec.types(); len(types) != 2 || types[1] != events.ReminderScheduled {
		t.Errorf("events = %v", types)
	}

	if _, _, err := ws.ChangeTaskStatus(ctx, "u1", task.ID, core.StatusDone); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ws.ChangeTaskStatus(ctx, "u1", task.ID, core.StatusDone); err != nil {
		t.Fatal(err)
	}
	d, _ := ws.Get(ctx, "u1")
	if d.XP != 10 {
		t.Errorf("xp = %d, want 10 after DONE twice", d.XP)
	}

	// Reopening keeps the XP; closing again earns it again.
	if _, effs, _ := ws.ChangeTaskStatus(ctx, "u1", task.ID, core.StatusPending); len(effs) != 1 || effs[0].Kind != core.EffectCompletionReverted {
		t.Errorf("reopen effects = %+v", effs)
	}
	ws.ChangeTaskStatus(ctx, "u1", task.ID, core.StatusDone)
	d, _ = ws.Get(ctx, "u1")
	if d.XP != 20 {
		t.Errorf("xp = %d, want 20", d.XP)
	}

	if _, _, err := ws.ChangeTaskStatus(ctx, "u1", task.ID, "ARCHIVED"); !errors.Is(err, core.ErrUnknownStatus) {
		t.Errorf("unknown status = %v", err)
	}
	if _, _, err := ws.ChangeTaskStatus(ctx, "u1", "missing", core.StatusDone); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing task = %v", err)
	}
	if err := ws.DeleteTask(ctx, "u1", task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
}

func TestWorkspace_ListTasks(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()
	late, _ := ws.AddTask(ctx, "u1", TaskInput{Title: "late", Priority: core.PriorityLow, DueDate: testNow.AddDate(0, 0, 9)})
	early, _ := ws.AddTask(ctx, "u1", TaskInput{Title: "early", Priority: core.PriorityHigh, DueDate: testNow.AddDate(0, 0, 1)})
	done, _ := ws.AddTask(ctx, "u1", TaskInput{Title: "done", DueDate: testNow})
	ws.ChangeTaskStatus(ctx, "u1", done.ID, core.StatusDone)

	all, err := ws.ListTasks(ctx, "u1", core.TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != early.ID || all[1].ID != late.ID || all[2].ID != done.ID {
		t.Errorf("order = %v", []string{all[0].Title, all[1].Title, all[2].Title})
	}
	if done.Priority != core.PriorityMedium {
		t.Errorf("default priority = %s", done.Priority)
	}

	high, _ := ws.ListTasks(ctx, "u1", core.TaskFilter{Priority: core.PriorityHigh})
	if len(high) != 1 || high[0].ID != early.ID {
		t.Errorf("priority filter = %+v", high)
	}
	if _, err := ws.ListTasks(ctx, "u1", core.TaskFilter{Status: "NOPE"}); !errors.Is(err, core.ErrUnknownStatus) {
		t.Errorf("bad filter = %v", err)
	}
}

func TestWorkspace_CalculatePlan(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	ctx := context.Background()
	goals := core.PlanGoals{
		Income:      dec("5000"),
		Expense:     dec("2000"),
		Savings:     dec("1000"),
		Investment:  dec("500"),
		Leisure:     dec("300"),
		BudgetLimit: dec("2500"),
	}

	plan, err := ws.CalculatePlan(ctx, "u1", goals)
	if err != nil {
		t.Fatalf("CalculatePlan: %v", err)
	}
	if plan.ID == "" || !plan.RemainingCash.Equal(dec("1200")) || !plan.IsRealistic {
		t.Errorf("plan = %+v", plan)
	}
	// The seeded June incomes are 2500 and 1200.
	if !plan.CurrentIncome.Equal(dec("3700")) {
		t.Errorf("current income = %s, want 3700", plan.CurrentIncome)
	}
	if plan.DaysInMonth != 30 {
		t.Errorf("days = %d, want 30", plan.DaysInMonth)
	}
	if types := rec.types(); len(types) != 1 || types[0] != events.PlanCalculated {
		t.Errorf("events = %v", types)
	}

	if _, err := ws.CalculatePlan(ctx, "u1", goals); !errors.Is(err, ErrPlanLocked) {
		t.Fatalf("recalculation on free tier = %v", err)
	}

	if err := ws.ApplyUpgrade(ctx, "u1", core.TierPro, "cs_1"); err != nil {
		t.Fatalf("ApplyUpgrade: %v", err)
	}
	second, err := ws.CalculatePlan(ctx, "u1", goals)
	if err != nil {
		t.Fatalf("recalculation on pro: %v", err)
	}
	stored, _ := ws.Plan(ctx, "u1")
	if stored.ID != second.ID || stored.ID == plan.ID {
		t.Errorf("stored plan %s, want replacement %s", stored.ID, second.ID)
	}

	if _, err := ws.CalculatePlan(ctx, "u1", core.PlanGoals{Income: dec("-1")}); !errors.Is(err, core.ErrInvalidGoal) {
		t.Errorf("negative goal = %v", err)
	}
}

func TestWorkspace_PlanMissing(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	if _, err := ws.Plan(context.Background(), "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Plan = %v, want ErrNotFound", err)
	}
}

func TestWorkspace_ApplyUpgrade(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	ctx := context.Background()

	if err := ws.ApplyUpgrade(ctx, "u1", core.TierUltimate, "cs_1"); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if err := ws.ApplyUpgrade(ctx, "u1", core.TierPro, "cs_2"); !errors.Is(err, ErrInvalidUpgrade) {
		t.Errorf("downgrade = %v", err)
	}
	if err := ws.ApplyUpgrade(ctx, "u2", core.TierPro, "cs_1"); !errors.Is(err, ErrAlreadyApplied) {
		t.Errorf("replayed checkout = %v", err)
	}
	if err := ws.ApplyUpgrade(ctx, "u1", "platinum", ""); !errors.Is(err, core.ErrInvalidTier) {
		t.Errorf("unknown tier = %v", err)
	}

	d, _ := ws.Get(ctx, "u1")
	if d.Tier != core.TierUltimate {
		t.Errorf("tier = %s", d.Tier)
	}
	if types := rec.types(); len(types) != 1 || types[0] != events.TierUpgraded {
		t.Errorf("events = %v", types)
	}
}

func TestWorkspace_UpdateProfile(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()
	name, age := "Grace", 36
	goal := dec("4500")

	p, err := ws.UpdateProfile(ctx, "u1", ProfileUpdate{Name: &name, Age: &age, MonthlyGoal: &goal})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if p.Name != "Grace" || *p.Age != 36 || !p.MonthlyGoal.Equal(goal) || !p.HasBadge(core.NewMemberBadge) {
		t.Errorf("profile = %+v", p)
	}

	blank := " "
	if _, err := ws.UpdateProfile(ctx, "u1", ProfileUpdate{Name: &blank}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("blank name = %v", err)
	}
	bad := -3
	if _, err := ws.UpdateProfile(ctx, "u1", ProfileUpdate{Age: &bad}); !errors.Is(err, core.ErrInvalidAge) {
		t.Errorf("negative age = %v", err)
	}
	d, _ := ws.Get(ctx, "u1")
	if d.Profile.Name != "Grace" || *d.Profile.Age != 36 {
		t.Errorf("rejected update changed the profile: %+v", d.Profile)
	}
}

func TestWorkspace_FailedSaveKeepsState(t *testing.T) {
	store := &failingStore{Store: memory.New()}
	rec := &recorder{}
	ws := NewWorkspace(store, config.DefaultRules(),
		WithPublisher(rec),
		WithCache(cache.NewLRUCache[core.UserData](10, time.Minute)),
		WithClock(func() time.Time { return testNow }))
	ctx := context.Background()
	before, _ := ws.Get(ctx, "u1")

	store.failSave = true
	if _, err := ws.AddTransaction(ctx, "u1", TransactionInput{Type: core.Income, Amount: dec("1000"), Source: "A", Date: testNow}); err == nil {
		t.Fatal("expected save error")
	}
	store.failSave = false

	after, _ := ws.Get(ctx, "u1")
	if len(after.Transactions) != len(before.Transactions) || after.XP != before.XP || !after.Pots[0].Balance.Equal(before.Pots[0].Balance) {
		t.Error("failed save leaked into state")
	}
	if len(rec.types()) != 0 {
		t.Error("failed save published events")
	}
}

func TestWorkspace_ApplyUpgradeRetriesAfterFailedSave(t *testing.T) {
	store := &failingStore{Store: memory.New()}
	rec := &recorder{}
	ws := NewWorkspace(store, config.DefaultRules(),
		WithPublisher(rec),
		WithCheckoutStore(store),
		WithClock(func() time.Time { return testNow }))
	ctx := context.Background()

	store.failSave = true
	if err := ws.ApplyUpgrade(ctx, "u1", core.TierPro, "cs_1"); err == nil {
		t.Fatal("expected save error")
	}
	if done, _ := store.CheckoutProcessed(ctx, "cs_1"); done {
		t.Fatal("checkout recorded although the tier was not saved")
	}
	store.failSave = false

	if err := ws.ApplyUpgrade(ctx, "u1", core.TierPro, "cs_1"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	d, _ := ws.Get(ctx, "u1")
	if d.Tier != core.TierPro {
		t.Errorf("tier = %s, want pro", d.Tier)
	}
	if err := ws.ApplyUpgrade(ctx, "u2", core.TierPro, "cs_1"); !errors.Is(err, ErrAlreadyApplied) {
		t.Errorf("reused checkout = %v", err)
	}
	if types := rec.types(); len(types) != 1 || types[0] != events.TierUpgraded {
		t.Errorf("events = %v", types)
	}
}

func TestWorkspace_CachedReadsAreCopies(t *testing.T) {
	ws, _ := newTestWorkspace(t, WithCache(cache.NewLRUCache[core.UserData](10, time.Minute)))
	ctx := context.Background()
	d, _ := ws.Get(ctx, "u1")
	d.Pots[0].Name = "mutated"
	d.XP = 999

	again, _ := ws.Get(ctx, "u1")
	if again.Pots[0].Name != "Taxes" || again.XP != 0 {
		t.Error("caller mutation reached the cache")
	}
}

func TestWorkspace_ConcurrentIncomes(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws.AddTransaction(ctx, "u1", TransactionInput{Type: core.Income, Amount: dec("100"), Source: "A", Date: testNow})
		}()
	}
	wg.Wait()

	d, _ := ws.Get(ctx, "u1")
	if d.XP != 100 {
		t.Errorf("xp = %d, want 100", d.XP)
	}
	if !d.Pots[0].Balance.Equal(dec("500")) {
		t.Errorf("pot balance = %s, want 500", d.Pots[0].Balance)
	}
}

func TestWorkspace_Dashboard(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()
	ws.AddTask(ctx, "u1", TaskInput{Title: "open", DueDate: testNow.AddDate(0, 0, 3)})
	closed, _ := ws.AddTask(ctx, "u1", TaskInput{Title: "closed", DueDate: testNow})
	ws.ChangeTaskStatus(ctx, "u1", closed.ID, core.StatusPaymentReceived)

	dash, err := ws.Dashboard(ctx, "u1", testNow)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if !dash.Summary.Income.Equal(dec("3700")) || !dash.Summary.Expense.Equal(dec("950")) {
		t.Errorf("summary = %+v", dash.Summary)
	}
	if !dash.Balance.Equal(dec("2750")) {
		t.Errorf("balance = %s, want 2750", dash.Balance)
	}
	if len(dash.IncomeSeries) != 6 {
		t.Errorf("series len = %d", len(dash.IncomeSeries))
	}
	if dash.TasksDoneToday != 1 || dash.PendingTasks != 1 {
		t.Errorf("tasks done=%d pending=%d", dash.TasksDoneToday, dash.PendingTasks)
	}
	if dash.Progress != nil {
		t.Error("progress without a plan")
	}
	if dash.Level.Level != 1 || dash.Level.Name != "Beginner" {
		t.Errorf("level = %+v", dash.Level)
	}
	if len(dash.Recent) != 4 {
		t.Errorf("recent = %d", len(dash.Recent))
	}

	ws.CalculatePlan(ctx, "u1", core.PlanGoals{Income: dec("7400"), BudgetLimit: dec("1900")})
	dash, _ = ws.Dashboard(ctx, "u1", testNow)
	if dash.Progress == nil || !dash.Progress.IncomePercent.Equal(dec("50")) || !dash.Progress.SpentPercent.Equal(dec("50")) {
		t.Errorf("progress = %+v", dash.Progress)
	}
}

func TestWorkspace_Reminders(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()
	overdue, _ := ws.AddTask(ctx, "u1", TaskInput{Title: "overdue", DueDate: testNow.AddDate(0, 0, -1)})
	ws.AddTask(ctx, "u1", TaskInput{Title: "due today", DueDate: testNow})
	invoiced, _ := ws.AddTask(ctx, "u1", TaskInput{Title: "invoiced", DueDate: testNow.AddDate(0, 0, 5)})
	ws.ChangeTaskStatus(ctx, "u1", invoiced.ID, core.StatusInvoiceSent)
	later, _ := ws.AddTask(ctx, "u1", TaskInput{Title: "later", DueDate: testNow.AddDate(0, 0, 30)})
	ws.ChangeTaskStatus(ctx, "u1", later.ID, core.StatusInvoiceSent)

	got, err := ws.Reminders(ctx, "u1", testNow)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("reminders = %+v", got)
	}
	if got[0].Task.ID != overdue.ID || got[0].Kind != ReminderOverdue {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Task.ID != invoiced.ID || got[1].Kind != ReminderInvoiceFollowUp {
		t.Errorf("second = %+v", got[1])
	}
}
