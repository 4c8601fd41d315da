package playback

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store, used by unit tests and single-node
// deployments.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// Get returns the stored state for room, or ErrNoState if none exists.
func (m *MemoryStore) Get(ctx context.Context, room string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[room]
	if !ok {
		return State{}, ErrNoState
	}
	return s, nil
}

// CompareAndSwap writes next if the stored version matches expectedVersion.
func (m *MemoryStore) CompareAndSwap(ctx context.Context, room string, expectedVersion int64, next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.states[room]
	var currentVersion int64
	if ok {
		currentVersion = current.Version
	}
	if currentVersion != expectedVersion {
		return ErrConflict
	}
	m.states[room] = next
	return nil
}
