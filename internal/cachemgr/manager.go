// Manager wires L1 -> L2 -> source-of-truth lookups together. Two
// independent L1 instances (user, room) avoid one entity type's churn
// evicting the other's hot entries; both share one L2 and one Singleflight
// keyed by a "kind:id" string so a user miss and a room miss never collide.
package cachemgr

import (
	"context"
	"time"

	"github.com/synctv-org/synctv-core/internal/metrics"
)

// DefaultL1TTL bounds how long an L1 entry is trusted before a refetch.
const DefaultL1TTL = 30 * time.Second

// Loader fetches the authoritative value for key when both L1 and L2 miss.
type Loader func(ctx context.Context) (any, error)

// Manager is the two-tier (L1 in-process, L2 shared) read-through cache
// fronting user and room records.
type Manager struct {
	userL1 *L1
	roomL1 *L1
	l2     L2
	sf     *Singleflight
	l2TTL  time.Duration
}

// NewManager creates a Manager. l1Capacity bounds each L1 tier's entry
// count; l2TTL is the expiry applied when writing through to L2.
func NewManager(l2 L2, l1Capacity int, l2TTL time.Duration) *Manager {
	return &Manager{
		userL1: NewL1(DefaultL1TTL, l1Capacity),
		roomL1: NewL1(DefaultL1TTL, l1Capacity),
		l2:     l2,
		sf:     NewSingleflight(),
		l2TTL:  l2TTL,
	}
}

// GetUser returns the cached value for userID, invoking load on a full miss.
// out must be a pointer; on a cache hit its pointee is overwritten via
// json round-trip so callers always receive a fresh copy.
func (m *Manager) GetUser(ctx context.Context, userID string, out any, load Loader) error {
	return m.get(ctx, m.userL1, "user:"+userID, out, load)
}

// GetRoom returns the cached value for roomID, invoking load on a full miss.
func (m *Manager) GetRoom(ctx context.Context, roomID string, out any, load Loader) error {
	return m.get(ctx, m.roomL1, "room:"+roomID, out, load)
}

func (m *Manager) get(ctx context.Context, l1 *L1, key string, out any, load Loader) error {
	if v, ok := l1.Get(key); ok {
		metrics.CacheHits.WithLabelValues("l1").Inc()
		return decodeValue(v.([]byte), out)
	}

	if raw, err := m.l2.Get(ctx, key); err == nil {
		metrics.CacheHits.WithLabelValues("l2").Inc()
		l1.Set(key, raw)
		return decodeValue(raw, out)
	} else if err != ErrMiss {
		// L2 is unavailable; fall through to the loader rather than failing
		// the request outright.
		_ = err
	}

	result, err := m.sf.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := encodeValue(v)
		if err != nil {
			return nil, err
		}
		l1.Set(key, raw)
		_ = m.l2.Set(ctx, key, raw, m.l2TTL)
		return raw, nil
	})
	if err != nil {
		return err
	}
	return decodeValue(result.([]byte), out)
}

// InvalidateUser drops userID from both tiers.
func (m *Manager) InvalidateUser(ctx context.Context, userID string) {
	key := "user:" + userID
	m.userL1.Evict(key)
	_ = m.l2.Delete(ctx, key)
}

// InvalidateRoom drops roomID from both tiers.
func (m *Manager) InvalidateRoom(ctx context.Context, roomID string) {
	key := "room:" + roomID
	m.roomL1.Evict(key)
	_ = m.l2.Delete(ctx, key)
}

// FlushAll clears both L1 tiers; used when the invalidation listener falls
// behind the bus and can no longer trust targeted evictions alone.
func (m *Manager) FlushAll() {
	m.userL1.Flush()
	m.roomL1.Flush()
}
