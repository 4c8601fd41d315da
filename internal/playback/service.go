package playback

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/synctv-org/synctv-core/internal/clusterbus"
	"github.com/synctv-org/synctv-core/internal/clusterevent"
	"github.com/synctv-org/synctv-core/internal/ids"
)

// Service is the Playback State Service: it mediates every write to a
// room's playback position through a version-gated compare-and-swap, then
// fans the accepted result out to the rest of the cluster.
type Service struct {
	store  Store
	bus    *clusterbus.Bus
	nodeID string
	log    *zap.SugaredLogger
}

// New creates a Service. bus may be nil, in which case accepted writes are
// not broadcast (useful for single-node tests).
func New(store Store, bus *clusterbus.Bus, nodeID string, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{store: store, bus: bus, nodeID: nodeID, log: log}
}

// Get returns the current playback state for room. A room with no prior
// write reports the zero State with version 0, not an error.
func (s *Service) Get(ctx context.Context, room string) (State, error) {
	st, err := s.store.Get(ctx, room)
	if errors.Is(err, ErrNoState) {
		return State{Room: room}, nil
	}
	return st, err
}

// Apply reads the current state, runs mutate against it, and writes the
// result under a single compare-and-swap against the version it read. Of
// two concurrent Apply calls against the same base version, exactly one
// wins; the other returns ErrConflict and must re-read the new state and
// retry itself — Apply never retries on the caller's behalf.
func (s *Service) Apply(ctx context.Context, room string, mutate Mutator) (State, error) {
	current, err := s.Get(ctx, room)
	if err != nil {
		return State{}, err
	}

	next := mutate(current)
	next.Room = room
	next.Version = current.Version + 1
	next.UpdatedBy = s.nodeID
	next.UpdatedAt = time.Now()

	if err := s.store.CompareAndSwap(ctx, room, current.Version, next); err != nil {
		return State{}, err
	}
	s.publish(&next)
	return next, nil
}

func (s *Service) publish(st *State) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(st)
	if err != nil {
		s.log.Errorw("marshal playback state", "error", err)
		return
	}
	event := &clusterevent.Event{
		EventID: ids.NewEventID(),
		Type:    clusterevent.PlaybackStateChange,
		Room:    st.Room,
		Payload: payload,
	}
	if err := s.bus.Publish(event); err != nil {
		s.log.Warnw("publish playback state change", "room", st.Room, "error", err)
	}
}
