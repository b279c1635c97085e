package core

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func newTask(status TaskStatus) Task {
	return Task{
		ID:       "t1",
		Title:    "Logo for client",
		Priority: PriorityHigh,
		DueDate:  time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		Status:   status,
	}
}

func kinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, len(effects))
	for i, e := range effects {
		out[i] = e.Kind
	}
	return out
}

func TestTransitionInvoiceSent(t *testing.T) {
	got, effects, err := Transition(newTask(StatusPending), StatusInvoiceSent, DefaultXPRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)
	if !got.ReminderSet || got.ReminderDate == nil || !got.ReminderDate.Equal(want) {
		t.Fatalf("reminder not scheduled correctly: %+v", got)
	}
	if len(effects) != 1 || effects[0].Kind != EffectReminderScheduled || !effects[0].ReminderDate.Equal(want) {
		t.Fatalf("effects = %+v", effects)
	}
}

func TestTransitionInvoiceSentAcrossDSTChange(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// Clocks moved forward on 2025-03-30, inside the reminder week.
	task := newTask(StatusPending)
	task.DueDate = time.Date(2025, 4, 2, 9, 0, 0, 0, rome)

	got, _, err := Transition(task, StatusInvoiceSent, DefaultXPRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 3, 26, 9, 0, 0, 0, rome)
	if got.ReminderDate == nil || !got.ReminderDate.Equal(want) {
		t.Fatalf("reminder = %v, want %v", got.ReminderDate, want)
	}
}

func TestTransitionPaymentReceivedClearsReminder(t *testing.T) {
	sent, _, _ := Transition(newTask(StatusPending), StatusInvoiceSent, DefaultXPRules())
	got, effects, err := Transition(sent, StatusPaymentReceived, DefaultXPRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ReminderSet {
		t.Fatal("reminder flag should be cleared")
	}
	if k := kinds(effects); len(k) != 1 || k[0] != EffectReminderCleared {
		t.Fatalf("effects = %v", k)
	}
}

func TestTransitionDoneGrantsXPOnce(t *testing.T) {
	rules := DefaultXPRules()
	for _, from := range []TaskStatus{StatusPending, StatusInvoiceSent, StatusPaymentReceived} {
		_, effects, err := Transition(newTask(from), StatusDone, rules)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", from, err)
		}
		if xp := XPFromEffects(effects); xp != 10 {
			t.Errorf("%s -> DONE granted %d XP, want 10", from, xp)
		}
	}

	_, effects, _ := Transition(newTask(StatusDone), StatusDone, rules)
	if xp := XPFromEffects(effects); xp != 0 || len(effects) != 0 {
		t.Errorf("DONE -> DONE produced %v", kinds(effects))
	}
}

func TestTransitionLeavingDoneIsAllowed(t *testing.T) {
	got, effects, err := Transition(newTask(StatusDone), StatusPending, DefaultXPRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("status = %s", got.Status)
	}
	if k := kinds(effects); len(k) != 1 || k[0] != EffectCompletionReverted {
		t.Fatalf("effects = %v", k)
	}
	// Completing again grants the bonus again.
	_, effects, _ = Transition(got, StatusDone, DefaultXPRules())
	if XPFromEffects(effects) != 10 {
		t.Fatal("expected bonus on re-completion")
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	orig := newTask(StatusPending)
	got, _, err := Transition(orig, TaskStatus("ARCHIVED"), DefaultXPRules())
	if !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("task changed on error: %+v", got)
	}
}

func TestSortAndFilterTasks(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tasks := []Task{
		{ID: "1", Status: StatusDone, Priority: PriorityLow, DueDate: base},
		{ID: "2", Status: StatusPending, Priority: PriorityHigh, DueDate: base.AddDate(0, 0, 5)},
		{ID: "3", Status: StatusInvoiceSent, Priority: PriorityHigh, DueDate: base.AddDate(0, 0, 1)},
		{ID: "4", Status: StatusPending, Priority: PriorityLow, DueDate: base.AddDate(0, 0, 2)},
	}
	sorted := SortTasks(tasks)
	order := ""
	for _, tk := range sorted {
		order += tk.ID
	}
	if order != "4213" {
		t.Fatalf("order = %s, want 4213", order)
	}
	if tasks[0].ID != "1" {
		t.Fatal("input slice reordered")
	}

	high := FilterTasks(tasks, TaskFilter{Priority: PriorityHigh})
	if len(high) != 2 {
		t.Fatalf("high priority count = %d, want 2", len(high))
	}
	pendingLow := FilterTasks(tasks, TaskFilter{Status: StatusPending, Priority: PriorityLow})
	if len(pendingLow) != 1 || pendingLow[0].ID != "4" {
		t.Fatalf("pending low = %+v", pendingLow)
	}
}

func TestTasksClosedToday(t *testing.T) {
	now := time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)
	tasks := []Task{
		{Status: StatusDone, DueDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)},
		{Status: StatusPaymentReceived, DueDate: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)},
		{Status: StatusPending, DueDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)},
		{Status: StatusDone, DueDate: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)},
	}
	if got := TasksClosedToday(tasks, now); got != 2 {
		t.Fatalf("TasksClosedToday = %d, want 2", got)
	}
}
