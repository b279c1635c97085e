// Package services holds the application services that own user state.
//
// Workspace is the single writer of every user's aggregate. Each mutation
// takes the user's lock, works on a clone of the current aggregate, persists
// the whole aggregate and only then publishes the resulting domain events.
// A failed mutation leaves both the store and the cache untouched.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"freelanceflow/internal/cache"
	"freelanceflow/internal/config"
	"freelanceflow/internal/core"
	"freelanceflow/internal/events"
	"freelanceflow/internal/log"
	"freelanceflow/internal/storage"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrTierLimit      = errors.New("plan tier limit reached")
	ErrPlanLocked     = errors.New("a financial plan already exists on this tier")
	ErrInvalidUpgrade = errors.New("invalid tier upgrade")
	ErrAlreadyApplied = errors.New("checkout already applied")
)

// IsValidation reports whether err is a rejected user input.
func IsValidation(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount, core.ErrInvalidType, core.ErrEmptySource, core.ErrEmptyName,
		core.ErrEmptyTitle, core.ErrInvalidDate, core.ErrInvalidPriority, core.ErrInvalidPercentage,
		core.ErrPercentageCap, core.ErrUnknownStatus, core.ErrInvalidTier, core.ErrInvalidAge,
		core.ErrInvalidGoal, ErrInvalidUpgrade,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Advisor is the AI collaborator used for chat and analysis.
type Advisor interface {
	Chat(ctx context.Context, userID, message string) (string, error)
	Analyze(ctx context.Context, userID string, in core.AnalysisInput) (core.Analysis, error)
}

type Workspace struct {
	store     storage.WorkspaceStore
	checkouts storage.CheckoutStore
	cache     cache.Cache[core.UserData]
	publisher events.Publisher
	advisor   Advisor
	rules     config.Rules
	now       func() time.Time
	logger    *log.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

type Option func(*Workspace)

func WithCache(c cache.Cache[core.UserData]) Option {
	return func(w *Workspace) { w.cache = c }
}

func WithPublisher(p events.Publisher) Option {
	return func(w *Workspace) { w.publisher = p }
}

func WithCheckoutStore(s storage.CheckoutStore) Option {
	return func(w *Workspace) { w.checkouts = s }
}

func WithAdvisor(a Advisor) Option {
	return func(w *Workspace) { w.advisor = a }
}

func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(w *Workspace) { w.logger = l }
}

func NewWorkspace(store storage.WorkspaceStore, rules config.Rules, opts ...Option) *Workspace {
	w := &Workspace{
		store:     store,
		rules:     rules,
		publisher: events.Nop{},
		now:       time.Now,
		logger:    log.Discard(),
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithComponent(log.ComponentWorkspace)
	return w
}

// Rules returns the product rules the workspace enforces.
func (w *Workspace) Rules() config.Rules { return w.rules }

// Now returns the workspace clock.
func (w *Workspace) Now() time.Time { return w.now() }

func (w *Workspace) lock(userID string) func() {
	w.locksMu.Lock()
	mu, ok := w.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		w.locks[userID] = mu
	}
	w.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}

// load returns the current aggregate; callers must hold the user's lock. A
// user without stored data gets the default aggregate, persisted at once.
func (w *Workspace) load(ctx context.Context, userID string) (core.UserData, error) {
	if w.cache != nil {
		if data, ok := w.cache.Get(userID); ok {
			return data.Clone(), nil
		}
	}
	data, found, err := w.store.LoadUserData(ctx, userID)
	if err != nil {
		return core.UserData{}, fmt.Errorf("load user data: %w", err)
	}
	if !found {
		data = core.NewUserData("", w.now())
		if err := w.store.SaveUserData(ctx, userID, data); err != nil {
			return core.UserData{}, fmt.Errorf("seed user data: %w", err)
		}
		w.logger.InfoContext(ctx, "Seeded default workspace", log.FieldUserID, userID)
	}
	if w.cache != nil {
		w.cache.Set(userID, data.Clone())
	}
	return data, nil
}

// pending is an event to publish once the mutation is saved.
type pending struct {
	typ     events.Type
	payload any
}

// mutate runs fn on a copy of the aggregate, saves the result and publishes
// the events fn returned.
func (w *Workspace) mutate(ctx context.Context, userID string, fn func(d *core.UserData) ([]pending, error)) (core.UserData, error) {
	unlock := w.lock(userID)
	current, err := w.load(ctx, userID)
	if err != nil {
		unlock()
		return core.UserData{}, err
	}

	next := current.Clone()
	evs, err := fn(&next)
	if err != nil {
		unlock()
		return core.UserData{}, err
	}

	if err := w.store.SaveUserData(ctx, userID, next); err != nil {
		if w.cache != nil {
			w.cache.Delete(userID)
		}
		unlock()
		return core.UserData{}, fmt.Errorf("save user data: %w", err)
	}
	if w.cache != nil {
		w.cache.Set(userID, next.Clone())
	}
	unlock()

	w.publish(ctx, userID, evs)
	return next, nil
}

func (w *Workspace) publish(ctx context.Context, userID string, evs []pending) {
	now := w.now()
	for _, p := range evs {
		e, err := events.New(p.typ, userID, p.payload, now)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to build event",
				log.FieldEventType, string(p.typ), log.FieldError, err)
			continue
		}
		if err := w.publisher.Publish(ctx, e); err != nil {
			// The mutation is saved; a lost event only costs an activity entry.
			fields := log.NewFields().WithUser(userID)
			fields[log.FieldEventID] = e.ID
			fields[log.FieldEventType] = string(e.Type)
			log.NewStructuredLogger(w.logger).LogError(ctx, "Failed to publish event", err, log.ComponentEvents, log.OpPublish, fields)
		}
	}
}

// Get returns the user's aggregate, seeding it on first access.
func (w *Workspace) Get(ctx context.Context, userID string) (core.UserData, error) {
	unlock := w.lock(userID)
	defer unlock()
	return w.load(ctx, userID)
}

// Seed replaces the user's aggregate with a fresh default one named name.
func (w *Workspace) Seed(ctx context.Context, userID, name string) error {
	unlock := w.lock(userID)
	defer unlock()
	data := core.NewUserData(name, w.now())
	if err := w.store.SaveUserData(ctx, userID, data); err != nil {
		return fmt.Errorf("seed user data: %w", err)
	}
	if w.cache != nil {
		w.cache.Set(userID, data.Clone())
	}
	return nil
}

