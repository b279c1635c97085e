package cache

import (
	"container/list"
	"sync"
	"time"
)

// Stats counts cache traffic since creation.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Expired   int64 `json:"expired"`
	Size      int   `json:"size"`
}

// HitRatio is hits over lookups, or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// LRUCache keeps at most maxSize entries, most recently used first. Entries
// live for ttl after their last Set.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	index   map[string]*list.Element
	order   *list.List
	stats   Stats
}

var _ Cache[int] = (*LRUCache[int])(nil)

type entry[T any] struct {
	key     string
	value   T
	expires time.Time
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		index:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.index[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	e := el.Value.(*entry[T])
	if c.now().After(e.expires) {
		c.drop(el)
		c.stats.Expired++
		c.stats.Misses++
		return zero, false
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	return e.value, true
}

// Set stores value under key and restarts its TTL.
func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expires: c.now().Add(c.ttl)}
	if el, ok := c.index[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}
	c.index[key] = c.order.PushFront(e)
	for c.order.Len() > c.maxSize {
		c.drop(c.order.Back())
		c.stats.Evictions++
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.drop(el)
	}
}

func (c *LRUCache[T]) drop(el *list.Element) {
	delete(c.index, el.Value.(*entry[T]).key)
	c.order.Remove(el)
}

// CleanExpired drops every expired entry and reports how many went.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*entry[T]).expires) {
			c.drop(el)
			removed++
		}
		el = prev
	}
	c.stats.Expired += int64(removed)
	return removed
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Stats returns a snapshot of the counters.
func (c *LRUCache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.index)
	return s
}

// Keys lists cached keys, most recently used first.
func (c *LRUCache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[T]).key)
	}
	return keys
}
