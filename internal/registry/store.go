// If you are AI: this file defines the Registry's storage capability
// interface. Design note 9 calls for "dynamic dispatch for pluggable
// storage... expressed as a capability interface with two concrete
// implementations"; Store is that interface, with MemoryStore and
// RedisStore as the implementations.
package registry

import (
	"context"
	"errors"
	"time"

	"github.com/synctv-org/synctv-core/internal/ids"
)

// ErrNotFound is returned by a Store when no record exists for a key.
var ErrNotFound = errors.New("registry: record not found")

// ErrOwnedByOther is returned by Refresh/Release when the caller is not the
// current owner of the record.
var ErrOwnedByOther = errors.New("registry: owned by another node")

// Record is the authoritative entry for one (room_id, media_id) live stream.
type Record struct {
	NodeID    string
	Epoch     int64
	RPCAddr   string
	StartedAt time.Time
}

// Store is the storage capability the Registry runs its atomic primitives
// against. Implementations must make TryClaim an atomic set-if-absent and
// must allocate a strictly increasing Epoch per key across the store's
// entire lifetime, even across process restarts.
type Store interface {
	// TryClaim atomically creates a record if absent, returning the freshly
	// allocated epoch. Returns ErrOwnedByOther if a record already exists.
	TryClaim(ctx context.Context, key ids.RoomMediaKey, nodeID, rpcAddr string, ttl time.Duration) (*Record, error)
	// Refresh extends the TTL of an existing record owned by nodeID.
	Refresh(ctx context.Context, key ids.RoomMediaKey, nodeID string, ttl time.Duration) error
	// Release removes the record if owned by nodeID. Idempotent: removing an
	// already-absent record is not an error.
	Release(ctx context.Context, key ids.RoomMediaKey, nodeID string) error
	// Lookup returns the current record for key, or ErrNotFound.
	Lookup(ctx context.Context, key ids.RoomMediaKey) (*Record, error)
	// ListActive returns every key with a live record.
	ListActive(ctx context.Context) ([]ids.RoomMediaKey, error)
}
