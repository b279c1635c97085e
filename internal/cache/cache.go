package cache

import (
	"time"

	"freelanceflow/internal/log"
)

// Cache is the read-through store the workspace service keeps in front of
// persisted aggregates.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic expiry over the registered caches.
type Manager struct {
	caches      []Cleaner
	logger      *log.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{
		logger:      logger.WithComponent(log.ComponentCache),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup. Call before StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				m.logger.Debug("Expired cache entries removed", "count", n)
			}
			m.report()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *Manager) report() {
	for i, c := range m.caches {
		r, ok := c.(interface{ Stats() Stats })
		if !ok {
			continue
		}
		st := r.Stats()
		m.logger.Debug("Cache stats",
			"cache", i,
			"size", st.Size,
			"hits", st.Hits,
			"misses", st.Misses,
			"evictions", st.Evictions,
			"hit_ratio", st.HitRatio())
	}
}

// CleanNow expires entries in every registered cache immediately.
func (m *Manager) CleanNow() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop stops the cleanup routine and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	if m.started {
		<-m.cleanupDone
	}
}
