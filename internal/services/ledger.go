package services

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"freelanceflow/internal/core"
	"freelanceflow/internal/events"
	"freelanceflow/internal/log"
)

// TransactionInput is a transaction as submitted by a user.
type TransactionInput struct {
	Type   core.TransactionType `json:"type"`
	Amount decimal.Decimal      `json:"amount"`
	Source string               `json:"source"`
	Date   time.Time            `json:"date"`
	Tags   []string             `json:"tags,omitempty"`
	Notes  string               `json:"notes,omitempty"`
}

func (in TransactionInput) transaction(id string) core.Transaction {
	return core.Transaction{
		ID:     id,
		Type:   in.Type,
		Amount: in.Amount,
		Source: strings.TrimSpace(in.Source),
		Date:   in.Date,
		Tags:   normalizeTags(in.Tags),
		Notes:  strings.TrimSpace(in.Notes),
	}
}

// normalizeTags trims, drops empties and removes duplicates, keeping order.
func normalizeTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// AddTransaction records a transaction. An income is split over every pot
// and earns XP in the same update.
func (w *Workspace) AddTransaction(ctx context.Context, userID string, in TransactionInput) (core.Transaction, error) {
	tx := in.transaction(uuid.NewString())
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	xp := 0
	_, err := w.mutate(ctx, userID, func(d *core.UserData) ([]pending, error) {
		d.Transactions = append([]core.Transaction{tx}, d.Transactions...)

		allocated := decimal.Zero
		xp = 0
		if tx.IsIncome() {
			d.Pots, allocated = core.Allocate(d.Pots, tx.Amount)
			xp = w.rules.XP.ForIncome(tx.Amount)
			d.XP += xp
		}

		evs := []pending{{events.TransactionAdded, events.TransactionAddedPayload{
			TransactionID: tx.ID,
			Kind:          tx.Type,
			Amount:        tx.Amount,
			Allocated:     allocated,
			XP:            xp,
		}}}
		if xp > 0 {
			evs = append(evs, pending{events.XPGranted, events.XPPayload{Delta: xp, Total: d.XP, Reason: "income"}})
		}
		return evs, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	log.NewStructuredLogger(w.logger).LogTransactionAdded(ctx, userID, tx.ID, string(tx.Type), tx.Amount.String(), xp)
	return tx, nil
}

// UpdateTransaction replaces a transaction in place. Pot balances and XP are
// left as they are.
func (w *Workspace) UpdateTransaction(ctx context.Context, userID, id string, in TransactionInput) (core.Transaction, error) {
	tx := in.transaction(id)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	_, err := w.mutate(ctx, userID, func(d *core.UserData) ([]pending, error) {
		i := d.TransactionIndex(id)
		if i < 0 {
			return nil, ErrNotFound
		}
		d.Transactions[i] = tx
		return nil, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// DeleteTransaction removes a transaction without reversing its effects.
func (w *Workspace) DeleteTransaction(ctx context.Context, userID, id string) error {
	_, err := w.mutate(ctx, userID, func(d *core.UserData) ([]pending, error) {
		i := d.TransactionIndex(id)
		if i < 0 {
			return nil, ErrNotFound
		}
		d.Transactions = slices.Delete(d.Transactions, i, i+1)
		return nil, nil
	})
	return err
}

// ListTransactions returns the user's transactions, newest first.
func (w *Workspace) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	d, err := w.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.RecentTransactions(d.Transactions), nil
}

// AddPot creates a savings pot, subject to the tier's pot limit and the
// allocation policy.
func (w *Workspace) AddPot(ctx context.Context, userID, name string, pct decimal.Decimal) (core.Pot, error) {
	pot := core.Pot{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(name),
		Percentage: pct,
		Balance:    decimal.Zero,
	}
	_, err := w.mutate(ctx, userID, func(d *core.UserData) ([]pending, error) {
		if limit := w.rules.Tier(d.Tier).MaxPots; limit > 0 && len(d.Pots) >= limit {
			return nil, ErrTierLimit
		}
		if err := w.rules.Allocation.ValidatePot(d.Pots, pot.Name, pct); err != nil {
			return nil, err
		}
		d.Pots = append(d.Pots, pot)
		return []pending{{events.PotCreated, events.PotCreatedPayload{PotID: pot.ID, Name: pot.Name, Percentage: pct}}}, nil
	})
	if err != nil {
		return core.Pot{}, err
	}
	w.logger.InfoContext(ctx, "Pot created", log.FieldUserID, userID, log.FieldPotID, pot.ID)
	return pot, nil
}

// DeletePot removes a pot. Its balance is forfeited.
func (w *Workspace) DeletePot(ctx context.Context, userID, id string) error {
	_, err := w.mutate(ctx, userID, func(d *core.UserData) ([]pending, error) {
		i := d.PotIndex(id)
		if i < 0 {
			return nil, ErrNotFound
		}
		d.Pots = slices.Delete(d.Pots, i, i+1)
		return nil, nil
	})
	return err
}

func (w *Workspace) ListPots(ctx context.Context, userID string) ([]core.Pot, error) {
	d, err := w.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return d.Pots, nil
}
