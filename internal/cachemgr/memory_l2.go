// If you are AI: MemoryL2 is the in-process counterpart to RedisL2, used
// when a node runs single-node with no cluster store configured.
package cachemgr

import (
	"context"
	"sync"
	"time"
)

type memoryL2Entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryL2 is an in-process stand-in for the shared Redis L2 tier, used when
// a node runs without a cluster store. It has no cross-node visibility, so
// cache invalidations published from other nodes are meaningless here — it
// exists purely so Manager has a tier to write through to on a single node.
type MemoryL2 struct {
	mu      sync.Mutex
	entries map[string]memoryL2Entry
}

// NewMemoryL2 creates an empty MemoryL2.
func NewMemoryL2() *MemoryL2 {
	return &MemoryL2{entries: make(map[string]memoryL2Entry)}
}

// Get returns the bytes stored for key, or ErrMiss if absent or expired.
func (m *MemoryL2) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	return e.value, nil
}

// Set stores value under key with the given TTL (0 means no expiry).
func (m *MemoryL2) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryL2Entry{value: value, expiresAt: expiresAt}
	return nil
}

// Delete removes key.
func (m *MemoryL2) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
