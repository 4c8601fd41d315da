// PullManager lazily creates at most one PullStream per (room, media) on
// this node: the first viewer to ask for a remotely-owned stream pays the
// cost of opening the relay; every viewer after that attaches to the same
// PullStream's local Publisher.
package stream

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/synctv-org/synctv-core/internal/ids"
	"github.com/synctv-org/synctv-core/internal/registry"
)

// DefaultIdleTimeout is how long a PullStream may sit with zero attached
// sinks before the sweep tears it down.
const DefaultIdleTimeout = 300 * time.Second

// DefaultSweepInterval is how often the idle/stale sweep runs.
const DefaultSweepInterval = 10 * time.Second

type pullEntry struct {
	stream    *PullStream
	idleSince time.Time
}

// PullManager owns the node-local set of active PullStreams.
type PullManager struct {
	registry *registry.Registry
	dial     Dialer
	log      *zap.SugaredLogger

	maxGops       int
	maxCacheBytes int

	mu      sync.Mutex
	entries map[ids.RoomMediaKey]*pullEntry
}

// NewPullManager creates a PullManager.
func NewPullManager(reg *registry.Registry, dial Dialer, maxGops, maxCacheBytes int, log *zap.SugaredLogger) *PullManager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &PullManager{
		registry:      reg,
		dial:          dial,
		log:           log,
		maxGops:       maxGops,
		maxCacheBytes: maxCacheBytes,
		entries:       make(map[ids.RoomMediaKey]*pullEntry),
	}
}

// GetOrCreate returns the PullStream for key, creating and launching one if
// none exists yet. Double-checked locking keeps the common (already exists)
// path cheap.
func (m *PullManager) GetOrCreate(ctx context.Context, key ids.RoomMediaKey) *PullStream {
	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		m.mu.Unlock()
		return e.stream
	}
	m.mu.Unlock()

	ps := NewPullStream(key, m.registry, m.dial, m.maxGops, m.maxCacheBytes, m.log)

	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		m.mu.Unlock()
		ps.Stop()
		return e.stream
	}
	m.entries[key] = &pullEntry{stream: ps}
	m.mu.Unlock()

	go func() {
		if err := ps.Run(context.Background()); err != nil {
			m.log.Warnw("pull stream ended", "key", key.String(), "error", err)
		}
		m.mu.Lock()
		if e, ok := m.entries[key]; ok && e.stream == ps {
			delete(m.entries, key)
		}
		m.mu.Unlock()
	}()

	return ps
}

// Sweep tears down any PullStream whose local Publisher has had zero
// attached sinks for longer than idleTimeout.
func (m *PullManager) Sweep(idleTimeout time.Duration) {
	now := time.Now()
	var stale []*PullStream

	m.mu.Lock()
	for key, e := range m.entries {
		if e.stream.Local.SinkCount() > 0 {
			e.idleSince = time.Time{}
			continue
		}
		if e.idleSince.IsZero() {
			e.idleSince = now
			continue
		}
		if now.Sub(e.idleSince) >= idleTimeout {
			stale = append(stale, e.stream)
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()

	for _, ps := range stale {
		ps.Stop()
	}
}

// RunSweepLoop runs Sweep on a ticker until ctx is canceled.
func (m *PullManager) RunSweepLoop(ctx context.Context, interval, idleTimeout time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(idleTimeout)
		}
	}
}

// Count returns the number of active pull streams, mainly for metrics.
func (m *PullManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
