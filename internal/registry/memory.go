// MemoryStore is an in-memory Store, used by unit tests and single-node
// deployments: a mutex-protected map keyed by stream identity, with epoch
// allocation and TTL expiry semantics layered on top.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/synctv-org/synctv-core/internal/ids"
)

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// MemoryStore is a mutex-protected map implementation of Store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[ids.RoomMediaKey]*memoryEntry
	epochs  map[ids.RoomMediaKey]int64
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory registry store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[ids.RoomMediaKey]*memoryEntry),
		epochs:  make(map[ids.RoomMediaKey]int64),
		now:     time.Now,
	}
}

// expireLocked drops key's record if its TTL has passed. Caller holds mu.
func (m *MemoryStore) expireLocked(key ids.RoomMediaKey) {
	if e, ok := m.records[key]; ok && m.now().After(e.expiresAt) {
		delete(m.records, key)
	}
}

func (m *MemoryStore) TryClaim(_ context.Context, key ids.RoomMediaKey, nodeID, rpcAddr string, ttl time.Duration) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireLocked(key)
	if _, exists := m.records[key]; exists {
		return nil, ErrOwnedByOther
	}

	m.epochs[key]++
	rec := Record{
		NodeID:    nodeID,
		Epoch:     m.epochs[key],
		RPCAddr:   rpcAddr,
		StartedAt: m.now(),
	}
	m.records[key] = &memoryEntry{record: rec, expiresAt: m.now().Add(ttl)}
	out := rec
	return &out, nil
}

func (m *MemoryStore) Refresh(_ context.Context, key ids.RoomMediaKey, nodeID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireLocked(key)
	e, ok := m.records[key]
	if !ok {
		return ErrNotFound
	}
	if e.record.NodeID != nodeID {
		return ErrOwnedByOther
	}
	e.expiresAt = m.now().Add(ttl)
	return nil
}

func (m *MemoryStore) Release(_ context.Context, key ids.RoomMediaKey, nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.records[key]
	if !ok {
		return nil
	}
	if e.record.NodeID != nodeID {
		return ErrOwnedByOther
	}
	delete(m.records, key)
	return nil
}

func (m *MemoryStore) Lookup(_ context.Context, key ids.RoomMediaKey) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireLocked(key)
	e, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := e.record
	return &out, nil
}

func (m *MemoryStore) ListActive(_ context.Context) ([]ids.RoomMediaKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]ids.RoomMediaKey, 0, len(m.records))
	for k := range m.records {
		m.expireLocked(k)
		if _, ok := m.records[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
