package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewAndDecode(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	e, err := New(PotCreated, "u1", PotCreatedPayload{PotID: "p1", Name: "Taxes", Percentage: decimal.NewFromInt(25)}, now)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.ID == "" || e.OccurredAt.Location() != time.UTC {
		t.Fatalf("envelope not stamped: %+v", e)
	}
	if string(e.Payload) != `{"potId":"p1","name":"Taxes","percentage":"25"}` {
		t.Fatalf("payload = %s", e.Payload)
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"id":"1","type":"pot.created","userId":"u1","occurredAt":"2025-06-01T08:00:00Z"}`},
		{name: "missing user", body: `{"id":"1","type":"pot.created"}`, wantErr: true},
		{name: "not json", body: `{`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Errorf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) handle(ctx context.Context, e Event) error { return r.Publish(ctx, e) }

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestBus_DeliversAndDrainsOnShutdown(t *testing.T) {
	bus := NewBus(8, nil)
	for i := 0; i < 3; i++ {
		if err := bus.Publish(context.Background(), Event{ID: string(rune('a' + i))}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}
	if err := bus.Run(ctx, rec.handle); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.len() != 3 {
		t.Fatalf("delivered %d events, want 3", rec.len())
	}
	if err := bus.Publish(context.Background(), Event{ID: "late"}); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("Publish after close = %v", err)
	}
}

func TestBus_Full(t *testing.T) {
	bus := NewBus(1, nil)
	if err := bus.Publish(context.Background(), Event{ID: "1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := bus.Publish(context.Background(), Event{ID: "2"}); !errors.Is(err, ErrBusFull) {
		t.Fatalf("Publish on full bus = %v", err)
	}
	if bus.Pending() != 1 {
		t.Fatalf("Pending() = %d", bus.Pending())
	}
}

func TestBus_HandlerErrorDoesNotStop(t *testing.T) {
	bus := NewBus(4, nil)
	rec := &recorder{err: errors.New("boom")}
	bus.Publish(context.Background(), Event{ID: "1"})
	bus.Publish(context.Background(), Event{ID: "2"})
	bus.Close()
	if err := bus.Run(context.Background(), rec.handle); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.len() != 2 {
		t.Fatalf("delivered %d, want 2", rec.len())
	}
}
