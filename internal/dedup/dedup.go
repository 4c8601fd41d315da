// The Deduplicator: a TTL cache of Key with an atomic get-or-insert so that
// under concurrent delivery (live pub/sub plus replay/catch-up) exactly one
// caller observes ShouldProcess == true. Hand-rolled as a small
// mutex-protected map rather than reaching for a generic cache library.
package dedup

import (
	"sync"
	"time"

	"github.com/synctv-org/synctv-core/internal/metrics"
)

// DefaultWindow is the default dedup TTL.
const DefaultWindow = 5 * time.Second

// Key identifies one logical event for deduplication: event type, an
// optional room/user scope, a millisecond timestamp, and the event's unique
// identity (event id or a content hash). Two distinct events never collide;
// the same event always reproduces the same key.
type Key struct {
	EventType   string
	Room        string
	User        string
	TimestampMs int64
	Identity    string
}

type entry struct {
	expiresAt time.Time
}

// Cache is a TTL set of recently-seen DedupKeys.
type Cache struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[Key]entry
	now    func() time.Time
}

// New creates a Cache with the given TTL window (DefaultWindow if <= 0).
func New(window time.Duration) *Cache {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Cache{
		window: window,
		seen:   make(map[Key]entry),
		now:    time.Now,
	}
}

// ShouldProcess reports whether the caller is the first to see key within
// the dedup window. The check-and-insert happens under one lock so that,
// across concurrent callers for the same key, exactly one returns true.
func (c *Cache) ShouldProcess(key Key) bool {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.seen[key]; ok && now.Before(e.expiresAt) {
		metrics.DedupHits.Inc()
		return false
	}
	c.seen[key] = entry{expiresAt: now.Add(c.window)}
	return true
}

// Sweep removes expired entries. Intended to run on a background ticker so
// the map does not grow without bound between bursts of distinct events.
func (c *Cache) Sweep() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.seen {
		if !now.Before(e.expiresAt) {
			delete(c.seen, k)
		}
	}
}

// Len reports the number of tracked keys, mainly for tests/metrics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
