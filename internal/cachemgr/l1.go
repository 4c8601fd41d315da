// The L1 in-memory cache tier: a small mutex-protected map with a TTL and a
// hard capacity bound, hand-rolled rather than pulling in a generic cache
// library. Eviction is opportunistic, checked on access rather than via a
// background sweep.
package cachemgr

import (
	"sync"
	"time"
)

type l1Entry struct {
	value     any
	expiresAt time.Time
}

// L1 is a small bounded, TTL'd in-memory cache in front of an L2 store.
type L1 struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]l1Entry
	order    []string // insertion order, for capacity-bound eviction
}

// NewL1 creates an L1 cache with the given TTL and maximum entry count.
func NewL1(ttl time.Duration, capacity int) *L1 {
	if capacity <= 0 {
		capacity = 10000
	}
	return &L1{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]l1Entry),
	}
}

// Get returns the cached value for key, if present and unexpired.
func (l *L1) Get(key string) (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	if l.ttl > 0 && time.Now().After(e.expiresAt) {
		delete(l.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set inserts or overwrites key, evicting the oldest entry if at capacity.
func (l *L1) Set(key string, value any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[key]; !exists {
		if len(l.entries) >= l.capacity && len(l.order) > 0 {
			oldest := l.order[0]
			l.order = l.order[1:]
			delete(l.entries, oldest)
		}
		l.order = append(l.order, key)
	}

	var expiresAt time.Time
	if l.ttl > 0 {
		expiresAt = time.Now().Add(l.ttl)
	}
	l.entries[key] = l1Entry{value: value, expiresAt: expiresAt}
}

// Evict removes a single key, used by the Invalidation Bus listener.
func (l *L1) Evict(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Flush clears the entire cache, used when the invalidation listener falls
// behind and targeted evictions can no longer be trusted to be complete.
func (l *L1) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]l1Entry)
	l.order = nil
}

// Len reports the number of entries currently cached, mainly for tests/metrics.
func (l *L1) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
