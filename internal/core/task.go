package core

import (
	"cmp"
	"slices"
	"time"
)

const (
	StatusPending         TaskStatus = "PENDING"
	StatusInvoiceSent     TaskStatus = "INVOICE_SENT"
	StatusPaymentReceived TaskStatus = "PAYMENT_RECEIVED"
	StatusDone            TaskStatus = "DONE"
)

const (
	EffectReminderScheduled EffectKind = "reminder_scheduled"
	EffectReminderCleared   EffectKind = "reminder_cleared"
	EffectCompleted         EffectKind = "completed"
	EffectXPGranted         EffectKind = "xp_granted"
	// EffectCompletionReverted marks a task leaving DONE. The XP granted on
	// completion is kept and a later DONE grants it again.
	EffectCompletionReverted EffectKind = "completion_reverted"
)

// ReminderLeadDays is how many calendar days before the due date an invoice
// reminder fires.
const ReminderLeadDays = 7

type (
	TaskStatus string
	EffectKind string

	// Effect is a side effect produced by a status transition. The caller
	// decides how to apply it (XP counter, notifications, events).
	Effect struct {
		Kind         EffectKind `json:"kind"`
		XP           int        `json:"xp,omitempty"`
		ReminderDate time.Time  `json:"reminderDate,omitzero"`
	}

	TaskFilter struct {
		Status   TaskStatus
		Priority TaskPriority
	}
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInvoiceSent, StatusPaymentReceived, StatusDone:
		return true
	}
	return false
}

// Transition moves a task to a new status. Every transition is allowed,
// including leaving DONE; only unknown statuses are rejected.
func Transition(t Task, to TaskStatus, rules XPRules) (Task, []Effect, error) {
	if !to.Valid() {
		return t, nil, ErrUnknownStatus
	}
	from := t.Status
	t.Status = to

	var effects []Effect
	switch to {
	case StatusInvoiceSent:
		rd := t.DueDate.AddDate(0, 0, -ReminderLeadDays)
		t.ReminderDate = &rd
		t.ReminderSet = true
		effects = append(effects, Effect{Kind: EffectReminderScheduled, ReminderDate: rd})
	case StatusPaymentReceived:
		if t.ReminderSet {
			effects = append(effects, Effect{Kind: EffectReminderCleared})
		}
		t.ReminderSet = false
	case StatusDone:
		if from != StatusDone {
			effects = append(effects,
				Effect{Kind: EffectCompleted},
				Effect{Kind: EffectXPGranted, XP: rules.TaskDoneBonus},
			)
		}
	}
	if from == StatusDone && to != StatusDone {
		effects = append(effects, Effect{Kind: EffectCompletionReverted})
	}
	return t, effects, nil
}

// XPFromEffects sums the XP carried by effects.
func XPFromEffects(effects []Effect) int {
	total := 0
	for _, e := range effects {
		if e.Kind == EffectXPGranted {
			total += e.XP
		}
	}
	return total
}

// SortTasks orders pending tasks first, then by due date.
func SortTasks(tasks []Task) []Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b Task) int {
		ap, bp := a.Status == StatusPending, b.Status == StatusPending
		if ap != bp {
			if ap {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.DueDate.UnixNano(), b.DueDate.UnixNano())
	})
	return out
}

// FilterTasks keeps the tasks matching every non-empty field of f.
func FilterTasks(tasks []Task, f TaskFilter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		out = append(out, t)
	}
	return out
}

// TasksClosedToday counts tasks due today that are paid or done.
func TasksClosedToday(tasks []Task, now time.Time) int {
	n := 0
	for _, t := range tasks {
		if t.Status != StatusDone && t.Status != StatusPaymentReceived {
			continue
		}
		if sameDay(t.DueDate.In(now.Location()), now) {
			n++
		}
	}
	return n
}
