// PublisherSet tracks this node's locally-owned Publishers, keyed by
// stream identity. Adapted from the map+mutex Get/GetOrCreate/Remove/List
// shape used for stream lifecycle tracking elsewhere in this codebase.
package stream

import (
	"sync"

	"github.com/synctv-org/synctv-core/internal/ids"
)

// PublisherSet is a node-local registry of live Publishers.
type PublisherSet struct {
	mu         sync.RWMutex
	publishers map[ids.RoomMediaKey]*Publisher
}

// NewPublisherSet creates an empty PublisherSet.
func NewPublisherSet() *PublisherSet {
	return &PublisherSet{publishers: make(map[ids.RoomMediaKey]*Publisher)}
}

// Put registers a Publisher under its key, replacing any prior entry.
func (s *PublisherSet) Put(p *Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishers[p.Key] = p
}

// Get retrieves the Publisher for key, or nil if none is registered.
func (s *PublisherSet) Get(key ids.RoomMediaKey) *Publisher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publishers[key]
}

// Remove drops the entry for key, if it matches p (guards against removing
// a newer Publisher that has since replaced it under the same key).
func (s *PublisherSet) Remove(key ids.RoomMediaKey, p *Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.publishers[key]; ok && cur == p {
		delete(s.publishers, key)
	}
}

// List returns every key currently tracked.
func (s *PublisherSet) List() []ids.RoomMediaKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]ids.RoomMediaKey, 0, len(s.publishers))
	for k := range s.publishers {
		keys = append(keys, k)
	}
	return keys
}

// Count returns the number of locally-owned publishers.
func (s *PublisherSet) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.publishers)
}
