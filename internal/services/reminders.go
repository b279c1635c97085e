package services

import (
	"context"
	"time"

	"freelanceflow/internal/core"
)

type ReminderKind string

const (
	// ReminderInvoiceFollowUp fires once an invoiced task reaches its reminder date.
	ReminderInvoiceFollowUp ReminderKind = "invoice_follow_up"
	// ReminderOverdue fires for pending work past its due date.
	ReminderOverdue ReminderKind = "overdue"
)

type Reminder struct {
	Kind ReminderKind `json:"kind"`
	Task core.Task    `json:"task"`
}

// DuenessChecker decides whether a task in a given status needs attention at now.
type DuenessChecker interface {
	IsDue(t core.Task, now time.Time) bool
	Kind() ReminderKind
}

// InvoiceChecker is due once the reminder date set when the invoice went out has passed.
type InvoiceChecker struct{}

func (InvoiceChecker) IsDue(t core.Task, now time.Time) bool {
	return t.ReminderSet && t.ReminderDate != nil && !t.ReminderDate.After(now)
}

func (InvoiceChecker) Kind() ReminderKind { return ReminderInvoiceFollowUp }

// OverdueChecker is due from the day after the due date.
type OverdueChecker struct{}

func (OverdueChecker) IsDue(t core.Task, now time.Time) bool {
	due := t.DueDate.In(now.Location())
	endOfDue := time.Date(due.Year(), due.Month(), due.Day()+1, 0, 0, 0, 0, now.Location())
	return !now.Before(endOfDue)
}

func (OverdueChecker) Kind() ReminderKind { return ReminderOverdue }

var duenessCheckers = map[core.TaskStatus]DuenessChecker{
	core.StatusPending:     OverdueChecker{},
	core.StatusInvoiceSent: InvoiceChecker{},
}

// Reminders lists the user's tasks that need attention at the given instant,
// ordered like ListTasks.
func (w *Workspace) Reminders(ctx context.Context, userID string, at time.Time) ([]Reminder, error) {
	d, err := w.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []Reminder{}
	for _, t := range core.SortTasks(d.Tasks) {
		checker, ok := duenessCheckers[t.Status]
		if !ok || !checker.IsDue(t, at) {
			continue
		}
		out = append(out, Reminder{Kind: checker.Kind(), Task: t})
	}
	return out, nil
}
