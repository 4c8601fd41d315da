// If you are AI: InvalidationBus is a second, narrower Redis Pub/Sub
// channel than clusterbus.Bus — it carries cache-eviction notices, not
// room-visible events, so it is kept as its own small channel rather than
// overloading clusterevent.Event with a cache concern. Mirrors clusterbus's
// reader-loop shape (subscribe, range over sub.Channel(), dispatch).
package cachemgr

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultInvalidationChannel is the Redis Pub/Sub channel for cache evictions.
const DefaultInvalidationChannel = "synctv:cache:invalidate"

// InvalidationKind identifies what an InvalidationMessage targets.
type InvalidationKind string

const (
	InvalidateUser           InvalidationKind = "user"
	InvalidateRoom           InvalidationKind = "room"
	InvalidateUserPermission InvalidationKind = "user_permission"
	InvalidateRoomPermission InvalidationKind = "room_permission"
	InvalidatePlaybackState  InvalidationKind = "playback_state"
	InvalidateAll            InvalidationKind = "all"
)

// InvalidationMessage names one cache entry (or everything) to evict.
type InvalidationMessage struct {
	Kind InvalidationKind `json:"kind"`
	ID   string           `json:"id,omitempty"`
}

// InvalidationBus publishes and receives InvalidationMessages, applying
// received ones against a Manager.
type InvalidationBus struct {
	rdb     *redis.Client
	channel string
	mgr     *Manager
	log     *zap.SugaredLogger
}

// NewInvalidationBus creates an InvalidationBus bound to mgr.
func NewInvalidationBus(rdb *redis.Client, channel string, mgr *Manager, log *zap.SugaredLogger) *InvalidationBus {
	if channel == "" {
		channel = DefaultInvalidationChannel
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &InvalidationBus{rdb: rdb, channel: channel, mgr: mgr, log: log}
}

// Publish broadcasts an invalidation to every node, including this one (the
// sending node applies it locally immediately rather than waiting for its
// own pub/sub echo).
func (b *InvalidationBus) Publish(ctx context.Context, msg InvalidationMessage) error {
	b.Apply(ctx, msg)
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

// Apply evicts the cache entries named by msg.
func (b *InvalidationBus) Apply(ctx context.Context, msg InvalidationMessage) {
	switch msg.Kind {
	case InvalidateUser, InvalidateUserPermission:
		b.mgr.InvalidateUser(ctx, msg.ID)
	case InvalidateRoom, InvalidateRoomPermission, InvalidatePlaybackState:
		b.mgr.InvalidateRoom(ctx, msg.ID)
	case InvalidateAll:
		b.mgr.FlushAll()
	}
}

// Run subscribes and applies incoming invalidations until ctx is canceled.
// If the subscriber falls behind and the client drops messages, the caller
// should treat any subscribe error as cause for a full FlushAll, since
// targeted evictions can no longer be trusted to be complete.
func (b *InvalidationBus) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				// The underlying connection dropped; we may have missed
				// deliveries in the gap, so flush rather than risk stale L1
				// entries lingering indefinitely.
				b.log.Warnw("invalidation subscription closed, flushing L1")
				b.mgr.FlushAll()
				return nil
			}
			var im InvalidationMessage
			if err := json.Unmarshal([]byte(msg.Payload), &im); err != nil {
				b.log.Warnw("discarding malformed invalidation message", "error", err)
				continue
			}
			b.Apply(ctx, im)
		}
	}
}
