package playback

import (
	"context"
	"errors"
)

// ErrConflict is returned by Store.CompareAndSwap when the stored version no
// longer matches the expected base version.
var ErrConflict = errors.New("playback: version conflict")

// ErrNoState is returned by Store.Get when a room has no recorded state yet.
var ErrNoState = errors.New("playback: no state recorded")

// Store is the durable, cluster-shared playback state backend.
type Store interface {
	Get(ctx context.Context, room string) (State, error)
	// CompareAndSwap writes next if the currently stored version equals
	// expectedVersion (or the room has no state and expectedVersion is 0).
	// Returns ErrConflict on a lost race.
	CompareAndSwap(ctx context.Context, room string, expectedVersion int64, next State) error
}
