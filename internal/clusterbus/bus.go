// Cluster-wide Pub/Sub fabric: a non-blocking publish side backed by a
// bounded channel and a background writer, and a subscribe side that dedups
// then injects events into the local Hub. Uses github.com/redis/go-redis/v9
// for cross-instance signaling; the reader/writer loops follow the same
// ctx + background goroutine + explicit Stop lifecycle as other background
// tasks in this codebase.
package clusterbus

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/synctv-org/synctv-core/internal/clusterevent"
	"github.com/synctv-org/synctv-core/internal/dedup"
	"github.com/synctv-org/synctv-core/internal/hub"
	"github.com/synctv-org/synctv-core/internal/xerr"
)

// DefaultChannel is the Redis Pub/Sub channel carrying cluster events.
const DefaultChannel = "synctv:cluster:events"

// DefaultOutboundQueueDepth bounds the publish-side backlog.
const DefaultOutboundQueueDepth = 4096

// KickPublisherFunc is invoked when a KickPublisher event arrives; such
// events go to this callback rather than the Hub, since the event is not
// room-visible.
type KickPublisherFunc func(event *clusterevent.Event)

// Bus is the Redis-backed Cluster Pub/Sub fabric.
type Bus struct {
	rdb     *redis.Client
	channel string
	nodeID  string
	hub     *hub.Hub
	dedup   *dedup.Cache
	log     *zap.SugaredLogger
	onKick  KickPublisherFunc

	outbound chan *clusterevent.Event

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates a Bus. Call Start to launch its background reader/writer.
func New(rdb *redis.Client, channel, nodeID string, h *hub.Hub, dd *dedup.Cache, log *zap.SugaredLogger, onKick KickPublisherFunc) *Bus {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Bus{
		rdb:      rdb,
		channel:  channel,
		nodeID:   nodeID,
		hub:      h,
		dedup:    dd,
		log:      log,
		onKick:   onKick,
		outbound: make(chan *clusterevent.Event, DefaultOutboundQueueDepth),
	}
}

// Publish enqueues event for cross-replica delivery without blocking. It
// stamps the event with this node's id so receivers can (optionally) skip
// events they themselves published, and returns ErrBackpressure if the
// outbound queue is full so callers can decide whether to drop or retry.
func (b *Bus) Publish(event *clusterevent.Event) error {
	event.NodeID = b.nodeID
	select {
	case b.outbound <- event:
		return nil
	default:
		return xerr.ErrBackpressure
	}
}

// Start launches the background writer and reader loops. It returns once
// the initial subscription is established.
func (b *Bus) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		return err
	}

	b.wg.Add(2)
	go b.writeLoop(ctx)
	go b.readLoop(ctx, sub)
	return nil
}

// Stop cancels the background loops and waits for them to exit.
func (b *Bus) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}

func (b *Bus) writeLoop(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-b.outbound:
			payload, err := json.Marshal(event)
			if err != nil {
				b.log.Errorw("marshal cluster event", "error", err)
				continue
			}
			if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
				b.log.Warnw("publish cluster event failed (transient)", "error", err)
			}
		}
	}
}

func (b *Bus) readLoop(ctx context.Context, sub *redis.PubSub) {
	defer b.wg.Done()
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handleIncoming(msg.Payload)
		}
	}
}

func (b *Bus) handleIncoming(payload string) {
	var event clusterevent.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		b.log.Warnw("discarding malformed cluster event", "error", err)
		return
	}

	if event.Type == clusterevent.KickPublisher {
		if b.onKick != nil {
			b.onKick(&event)
		}
		return
	}

	if !b.dedup.ShouldProcess(event.DedupKey()) {
		return
	}

	b.hub.Broadcast(event.Room, &event)
}
