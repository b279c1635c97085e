package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"freelanceflow/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists aggregates, accounts and the activity log in a
// single SQLite file.
type SQLiteRepository struct {
	db            *sql.DB
	schemaVersion uint
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite repository ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, schemaVersion: version}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SchemaVersion returns the migration version applied at startup.
func (r *SQLiteRepository) SchemaVersion() uint { return r.schemaVersion }

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// LoadUserData implements WorkspaceStore
func (r *SQLiteRepository) LoadUserData(ctx context.Context, userID string) (core.UserData, bool, error) {
	var doc string
	err := r.db.QueryRowContext(ctx,
		`SELECT document FROM user_data WHERE user_id = ?`, userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserData{}, false, nil
	}
	if err != nil {
		return core.UserData{}, false, fmt.Errorf("load user data: %w", err)
	}
	data, err := DecodeUserData([]byte(doc))
	if err != nil {
		return core.UserData{}, false, err
	}
	return data, true, nil
}

// SaveUserData implements WorkspaceStore
func (r *SQLiteRepository) SaveUserData(ctx context.Context, userID string, data core.UserData) error {
	doc, err := EncodeUserData(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_data (user_id, document, revision, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			document = excluded.document,
			revision = user_data.revision + 1,
			updated_at = excluded.updated_at`,
		userID, string(doc), toMillis(time.Now()))
	if err != nil {
		return fmt.Errorf("save user data: %w", err)
	}
	return nil
}

// CreateUser implements AccountStore
func (r *SQLiteRepository) CreateUser(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.Name, u.PasswordHash, toMillis(u.CreatedAt))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (User, error) {
	var (
		u       User
		created int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = fromMillis(created)
	return u, nil
}

// UserByEmail implements AccountStore
func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`,
		strings.ToLower(email)))
}

// UserByID implements AccountStore
func (r *SQLiteRepository) UserByID(ctx context.Context, id string) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?`, id))
}

// CreateSession implements AccountStore
func (r *SQLiteRepository) CreateSession(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		s.Token, s.UserID, toMillis(s.CreatedAt), toMillis(s.ExpiresAt))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SessionByToken implements AccountStore
func (r *SQLiteRepository) SessionByToken(ctx context.Context, token string) (Session, error) {
	var (
		s                Session
		created, expires int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`, token).
		Scan(&s.Token, &s.UserID, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	s.CreatedAt = fromMillis(created)
	s.ExpiresAt = fromMillis(expires)
	return s, nil
}

// DeleteSession implements AccountStore
func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions implements AccountStore
func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

// AppendActivity implements ActivityStore
func (r *SQLiteRepository) AppendActivity(ctx context.Context, a Activity) error {
	var payload sql.NullString
	if len(a.Payload) > 0 {
		payload = sql.NullString{String: string(a.Payload), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity (id, user_id, type, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		a.ID, a.UserID, a.Type, payload, toMillis(a.OccurredAt))
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// ListActivity implements ActivityStore
func (r *SQLiteRepository) ListActivity(ctx context.Context, userID string, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, payload, occurred_at
		FROM activity
		WHERE user_id = ?
		ORDER BY occurred_at DESC, id
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := []Activity{}
	for rows.Next() {
		var (
			a        Activity
			payload  sql.NullString
			occurred int64
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &payload, &occurred); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if payload.Valid {
			a.Payload = []byte(payload.String)
		}
		a.OccurredAt = fromMillis(occurred)
		out = append(out, a)
	}
	return out, rows.Err()
}

// CheckoutProcessed implements CheckoutStore
func (r *SQLiteRepository) CheckoutProcessed(ctx context.Context, checkoutID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM processed_checkouts WHERE checkout_id = ?`, checkoutID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check checkout processed: %w", err)
	}
	return n > 0, nil
}

// MarkCheckoutProcessed implements CheckoutStore
func (r *SQLiteRepository) MarkCheckoutProcessed(ctx context.Context, checkoutID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO processed_checkouts (checkout_id, user_id, processed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(checkout_id) DO NOTHING`,
		checkoutID, userID, toMillis(time.Now()))
	if err != nil {
		return false, fmt.Errorf("mark checkout processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark checkout processed: %w", err)
	}
	return n == 1, nil
}
