// Package events defines the domain events emitted by workspace mutations and
// an in-process bus that delivers them to a handler.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"freelanceflow/internal/core"
)

type Type string

const (
	TransactionAdded  Type = "transaction.added"
	PotCreated        Type = "pot.created"
	TaskStatusChanged Type = "task.status"
	ReminderScheduled Type = "reminder.scheduled"
	PlanCalculated    Type = "plan.calculated"
	TierUpgraded      Type = "tier.upgraded"
	XPGranted         Type = "xp.granted"
)

// Event is the envelope published on the bus and over AMQP.
type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	UserID     string          `json:"userId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// New stamps a fresh event id and encodes payload.
func New(typ Type, userID string, payload any, now time.Time) (Event, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("encode %s payload: %w", typ, err)
		}
		raw = b
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		UserID:     userID,
		OccurredAt: now.UTC(),
		Payload:    raw,
	}, nil
}

// Decode parses a wire event and checks the envelope.
func Decode(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.ID == "" || e.Type == "" || e.UserID == "" {
		return Event{}, errors.New("decode event: missing id, type or user")
	}
	return e, nil
}

// Payloads.
type (
	TransactionAddedPayload struct {
		TransactionID string               `json:"transactionId"`
		Kind          core.TransactionType `json:"kind"`
		Amount        decimal.Decimal      `json:"amount"`
		Allocated     decimal.Decimal      `json:"allocated"`
		XP            int                  `json:"xp"`
	}

	PotCreatedPayload struct {
		PotID      string          `json:"potId"`
		Name       string          `json:"name"`
		Percentage decimal.Decimal `json:"percentage"`
	}

	TaskStatusPayload struct {
		TaskID string          `json:"taskId"`
		From   core.TaskStatus `json:"from"`
		To     core.TaskStatus `json:"to"`
	}

	ReminderPayload struct {
		TaskID       string    `json:"taskId"`
		Title        string    `json:"title"`
		ReminderDate time.Time `json:"reminderDate"`
	}

	PlanPayload struct {
		PlanID       string          `json:"planId"`
		WeeklyTarget decimal.Decimal `json:"weeklyTarget"`
		IsRealistic  bool            `json:"isRealistic"`
	}

	TierPayload struct {
		From       core.PlanTier `json:"from"`
		To         core.PlanTier `json:"to"`
		CheckoutID string        `json:"checkoutId,omitempty"`
	}

	XPPayload struct {
		Delta  int    `json:"delta"`
		Total  int    `json:"total"`
		Reason string `json:"reason"`
	}
)

// Publisher delivers events to whoever records them.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Handler consumes one event.
type Handler func(ctx context.Context, e Event) error

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
