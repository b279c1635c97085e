// Package memory is an in-process Store. Aggregates are kept in their
// encoded form and, when a data directory is set, mirrored to one JSON file
// per user so a restart keeps them.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"freelanceflow/internal/core"
	"freelanceflow/internal/storage"
)

const filePrefix = "ff_data_"

type Store struct {
	mu        sync.Mutex
	dir       string
	docs      map[string][]byte
	users     map[string]storage.User
	sessions  map[string]storage.Session
	activity  map[string][]storage.Activity
	seen      map[string]struct{}
	checkouts map[string]string
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		docs:      make(map[string][]byte),
		users:     make(map[string]storage.User),
		sessions:  make(map[string]storage.Session),
		activity:  make(map[string][]storage.Activity),
		seen:      make(map[string]struct{}),
		checkouts: make(map[string]string),
	}
}

// NewFromDir returns a store that mirrors aggregates under dir. Existing
// files are loaded lazily.
func NewFromDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := New()
	s.dir = dir
	return s, nil
}

func (s *Store) path(userID string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '.' {
			return '_'
		}
		return r
	}, userID)
	return filepath.Join(s.dir, filePrefix+safe+".json")
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// LoadUserData implements storage.WorkspaceStore
func (s *Store) LoadUserData(_ context.Context, userID string) (core.UserData, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[userID]
	if !ok && s.dir != "" {
		b, err := os.ReadFile(s.path(userID))
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return core.UserData{}, false, fmt.Errorf("read user data file: %w", err)
		default:
			doc, ok = b, true
			s.docs[userID] = b
		}
	}
	if !ok {
		return core.UserData{}, false, nil
	}
	data, err := storage.DecodeUserData(doc)
	if err != nil {
		return core.UserData{}, false, err
	}
	return data, true, nil
}

// SaveUserData implements storage.WorkspaceStore
func (s *Store) SaveUserData(_ context.Context, userID string, data core.UserData) error {
	doc, err := storage.EncodeUserData(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dir != "" {
		tmp := s.path(userID) + ".tmp"
		if err := os.WriteFile(tmp, doc, 0644); err != nil {
			return fmt.Errorf("write user data file: %w", err)
		}
		if err := os.Rename(tmp, s.path(userID)); err != nil {
			return fmt.Errorf("replace user data file: %w", err)
		}
	}
	s.docs[userID] = doc
	return nil
}

// CreateUser implements storage.AccountStore
func (s *Store) CreateUser(_ context.Context, u storage.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return storage.ErrDuplicate
		}
	}
	if _, ok := s.users[u.ID]; ok {
		return storage.ErrDuplicate
	}
	s.users[u.ID] = u
	return nil
}

// UserByEmail implements storage.AccountStore
func (s *Store) UserByEmail(_ context.Context, email string) (storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return storage.User{}, storage.ErrNotFound
}

// UserByID implements storage.AccountStore
func (s *Store) UserByID(_ context.Context, id string) (storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

// CreateSession implements storage.AccountStore
func (s *Store) CreateSession(_ context.Context, sess storage.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.Token]; ok {
		return storage.ErrDuplicate
	}
	s.sessions[sess.Token] = sess
	return nil
}

// SessionByToken implements storage.AccountStore
func (s *Store) SessionByToken(_ context.Context, token string) (storage.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return storage.Session{}, storage.ErrNotFound
	}
	return sess, nil
}

// DeleteSession implements storage.AccountStore
func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// DeleteExpiredSessions implements storage.AccountStore
func (s *Store) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, sess := range s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

// AppendActivity implements storage.ActivityStore
func (s *Store) AppendActivity(_ context.Context, a storage.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[a.ID]; dup {
		return nil
	}
	s.seen[a.ID] = struct{}{}
	s.activity[a.UserID] = append(s.activity[a.UserID], a)
	return nil
}

// ListActivity implements storage.ActivityStore
func (s *Store) ListActivity(_ context.Context, userID string, limit int) ([]storage.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	out := append([]storage.Activity(nil), s.activity[userID]...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []storage.Activity{}
	}
	return out, nil
}

// CheckoutProcessed implements storage.CheckoutStore
func (s *Store) CheckoutProcessed(_ context.Context, checkoutID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.checkouts[checkoutID]
	return ok, nil
}

// MarkCheckoutProcessed implements storage.CheckoutStore
func (s *Store) MarkCheckoutProcessed(_ context.Context, checkoutID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.checkouts[checkoutID]; ok {
		return false, nil
	}
	s.checkouts[checkoutID] = userID
	return true, nil
}
