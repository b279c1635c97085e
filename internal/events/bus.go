package events

import (
	"context"
	"errors"
	"sync"

	"freelanceflow/internal/log"
)

var (
	ErrBusFull   = errors.New("event bus full")
	ErrBusClosed = errors.New("event bus closed")
)

// Bus is a bounded in-process queue. Publish never blocks; Run drains the
// queue into a handler until the context ends, then flushes what is left.
type Bus struct {
	mu     sync.RWMutex
	ch     chan Event
	closed bool
	logger *log.Logger
}

var _ Publisher = (*Bus)(nil)

func NewBus(size int, logger *log.Logger) *Bus {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Bus{
		ch:     make(chan Event, size),
		logger: logger.WithComponent(log.ComponentEvents),
	}
}

func (b *Bus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	select {
	case b.ch <- e:
		return nil
	default:
		return ErrBusFull
	}
}

// Pending returns the number of queued events.
func (b *Bus) Pending() int { return len(b.ch) }

// Close stops accepting events. Run returns once the queue is drained.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
}

// Run delivers events to h. Handler errors are logged and the event dropped.
func (b *Bus) Run(ctx context.Context, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			b.Close()
			b.drain(context.WithoutCancel(ctx), h)
			return nil
		case e, ok := <-b.ch:
			if !ok {
				return nil
			}
			b.deliver(ctx, h, e)
		}
	}
}

func (b *Bus) drain(ctx context.Context, h Handler) {
	for e := range b.ch {
		b.deliver(ctx, h, e)
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, e Event) {
	if err := h(ctx, e); err != nil {
		b.logger.ErrorContext(ctx, "Event handler failed",
			log.FieldEventID, e.ID,
			log.FieldEventType, string(e.Type),
			log.FieldUserID, e.UserID,
			log.FieldError, err)
	}
}
