package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"freelanceflow/internal/core"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type (
	// User is a registered account. Guests have no row.
	User struct {
		ID           string
		Email        string
		Name         string
		PasswordHash string
		CreatedAt    time.Time
	}

	Session struct {
		Token     string
		UserID    string
		CreatedAt time.Time
		ExpiresAt time.Time
	}

	// Activity is one entry of a user's activity log.
	Activity struct {
		ID         string          `json:"id"`
		UserID     string          `json:"userId"`
		Type       string          `json:"type"`
		Payload    json.RawMessage `json:"payload,omitempty"`
		OccurredAt time.Time       `json:"occurredAt"`
	}
)

// Ports implemented by every backend.
type (
	WorkspaceStore interface {
		// LoadUserData returns the stored aggregate, or found=false when the
		// user has none yet.
		LoadUserData(ctx context.Context, userID string) (data core.UserData, found bool, err error)
		// SaveUserData replaces the whole stored aggregate.
		SaveUserData(ctx context.Context, userID string, data core.UserData) error
	}

	AccountStore interface {
		CreateUser(ctx context.Context, u User) error
		UserByEmail(ctx context.Context, email string) (User, error)
		UserByID(ctx context.Context, id string) (User, error)

		CreateSession(ctx context.Context, s Session) error
		SessionByToken(ctx context.Context, token string) (Session, error)
		DeleteSession(ctx context.Context, token string) error
		DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	}

	ActivityStore interface {
		// AppendActivity is idempotent on Activity.ID.
		AppendActivity(ctx context.Context, a Activity) error
		ListActivity(ctx context.Context, userID string, limit int) ([]Activity, error)
	}

	CheckoutStore interface {
		CheckoutProcessed(ctx context.Context, checkoutID string) (bool, error)
		// MarkCheckoutProcessed records a completed checkout and reports
		// whether this call was the first to do so.
		MarkCheckoutProcessed(ctx context.Context, checkoutID, userID string) (bool, error)
	}

	Store interface {
		WorkspaceStore
		AccountStore
		ActivityStore
		CheckoutStore
		Ping(ctx context.Context) error
		Close() error
	}
)
