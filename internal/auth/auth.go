// Package auth manages accounts and login sessions.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"freelanceflow/internal/log"
	"freelanceflow/internal/storage"
)

// GuestUserID is the fixed account used by guest logins.
const GuestUserID = "local-user"

const (
	CookieName         = "ff_session"
	DefaultSessionTTL  = 7 * 24 * time.Hour
	minPasswordLength  = 6
	sessionTokenLength = 32
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrMissingFields      = errors.New("name, email and password are required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

// Seeder prepares the workspace of a newly registered user.
type Seeder interface {
	Seed(ctx context.Context, userID, name string) error
}

type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Guest  bool   `json:"guest"`
}

// Session is a freshly issued login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Identity  Identity  `json:"user"`
}

type Service struct {
	store  storage.AccountStore
	seeder Seeder
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

func NewService(store storage.AccountStore, seeder Seeder, ttl time.Duration, logger *log.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		store:  store,
		seeder: seeder,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

func generateSecureToken() (string, error) {
	b := make([]byte, sessionTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *Service) issue(ctx context.Context, id Identity) (Session, error) {
	token, err := generateSecureToken()
	if err != nil {
		return Session{}, err
	}
	now := s.now()
	sess := storage.Session{
		Token:     token,
		UserID:    id.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return Session{Token: token, ExpiresAt: sess.ExpiresAt, Identity: id}, nil
}

// Guest logs in as the shared local user. Its workspace is created on first use.
func (s *Service) Guest(ctx context.Context) (Session, error) {
	return s.issue(ctx, guestIdentity())
}

func guestIdentity() Identity {
	return Identity{UserID: GuestUserID, Name: "Guest", Guest: true}
}

// Register creates an account, seeds its workspace and logs it in.
func (s *Service) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return Session{}, ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return Session{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hashing password: %w", err)
	}
	u := storage.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	if s.seeder != nil {
		if err := s.seeder.Seed(ctx, u.ID, name); err != nil {
			return Session{}, fmt.Errorf("seed workspace: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, u.ID)
	return s.issue(ctx, Identity{UserID: u.ID, Name: u.Name, Email: u.Email})
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.store.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Failed login", log.FieldUserID, u.ID)
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(ctx, Identity{UserID: u.ID, Name: u.Name, Email: u.Email})
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, token)
}

// Authenticate resolves a session token. Expired sessions are deleted.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}
	sess, err := s.store.SessionByToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return Identity{}, ErrUnauthenticated
	}
	if err != nil {
		return Identity{}, fmt.Errorf("lookup session: %w", err)
	}
	if !sess.ExpiresAt.After(s.now()) {
		if err := s.store.DeleteSession(ctx, token); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete expired session", log.FieldError, err)
		}
		return Identity{}, ErrUnauthenticated
	}

	if sess.UserID == GuestUserID {
		return guestIdentity(), nil
	}
	u, err := s.store.UserByID(ctx, sess.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return Identity{}, ErrUnauthenticated
	}
	if err != nil {
		return Identity{}, fmt.Errorf("lookup user: %w", err)
	}
	return Identity{UserID: u.ID, Name: u.Name, Email: u.Email}, nil
}
