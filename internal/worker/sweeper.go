package worker

import (
	"context"
	"time"

	"freelanceflow/internal/log"
	"freelanceflow/internal/storage"
)

// SessionSweeper deletes expired sessions on a fixed interval.
type SessionSweeper struct {
	store  storage.AccountStore
	now    func() time.Time
	logger *log.Logger
}

func NewSessionSweeper(store storage.AccountStore, logger *log.Logger) *SessionSweeper {
	if logger == nil {
		logger = log.Discard()
	}
	return &SessionSweeper{store: store, now: time.Now, logger: logger.WithComponent(log.ComponentWorker)}
}

// Sweep runs one pass and returns how many sessions were removed.
func (s *SessionSweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "Expired sessions removed", "count", n)
	}
	return n, nil
}

// Run sweeps once immediately, then every interval until ctx ends.
func (s *SessionSweeper) Run(ctx context.Context, interval time.Duration) error {
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Session sweep failed", log.FieldError, err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Session sweep failed", log.FieldError, err)
			}
		}
	}
}
