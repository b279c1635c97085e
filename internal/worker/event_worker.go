// Package worker consumes domain events: every event lands in the user's
// activity log, and new transactions are mirrored to an external sheet when
// one is configured.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"freelanceflow/internal/core"
	"freelanceflow/internal/events"
	"freelanceflow/internal/log"
	"freelanceflow/internal/storage"
)

// TransactionSink receives transactions mirrored out of the workspace.
type TransactionSink interface {
	AppendTransaction(ctx context.Context, userID string, tx core.Transaction) error
}

type EventWorker struct {
	activity  storage.ActivityStore
	workspace storage.WorkspaceStore
	sink      TransactionSink
	logger    *log.Logger
}

// NewEventWorker builds a worker. sink may be nil to disable mirroring.
func NewEventWorker(activity storage.ActivityStore, workspace storage.WorkspaceStore, sink TransactionSink, logger *log.Logger) *EventWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &EventWorker{
		activity:  activity,
		workspace: workspace,
		sink:      sink,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent implements events.Handler. A returned error asks the
// transport to redeliver; recording activity is idempotent so retries are safe.
func (w *EventWorker) HandleEvent(ctx context.Context, e events.Event) error {
	w.logger.DebugContext(ctx, "Processing event",
		log.FieldEventID, e.ID,
		log.FieldEventType, string(e.Type),
		log.FieldUserID, e.UserID)

	if err := w.activity.AppendActivity(ctx, storage.Activity{
		ID:         e.ID,
		UserID:     e.UserID,
		Type:       string(e.Type),
		Payload:    e.Payload,
		OccurredAt: e.OccurredAt,
	}); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}

	if e.Type == events.TransactionAdded && w.sink != nil {
		if err := w.mirrorTransaction(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (w *EventWorker) mirrorTransaction(ctx context.Context, e events.Event) error {
	var p events.TransactionAddedPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		// Retrying will not fix a bad payload.
		w.logger.ErrorContext(ctx, "Dropping transaction event with bad payload",
			log.FieldEventID, e.ID, log.FieldError, err)
		return nil
	}

	data, found, err := w.workspace.LoadUserData(ctx, e.UserID)
	if err != nil {
		return fmt.Errorf("load user data: %w", err)
	}
	idx := -1
	if found {
		idx = data.TransactionIndex(p.TransactionID)
	}
	if idx < 0 {
		w.logger.WarnContext(ctx, "Transaction gone before it could be mirrored",
			log.FieldUserID, e.UserID,
			log.FieldTransactionID, p.TransactionID)
		return nil
	}

	tx := data.Transactions[idx]
	if err := w.sink.AppendTransaction(ctx, e.UserID, tx); err != nil {
		return fmt.Errorf("mirror transaction: %w", err)
	}

	w.logger.InfoContext(ctx, "Transaction mirrored",
		log.FieldUserID, e.UserID,
		log.FieldTransactionID, tx.ID,
		log.FieldAmount, tx.Amount.String())
	return nil
}
