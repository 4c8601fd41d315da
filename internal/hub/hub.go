// The Room Message Hub: an in-process per-room broadcast tree, one room ->
// many Subscriptions, each carrying clusterevent.Event.
//
// Broadcast can be called concurrently by more than one caller for the same
// room (the local connection handler and the cluster pub/sub receiver both
// call it), so each subscription's delivery queue is a genuine
// multi-producer/single-consumer structure. A Go channel with a
// non-blocking send gives try-send/drop-new-event semantics directly,
// without the single-writer assumption that internal/queue.RingBuffer
// carries (that type is reserved for genuinely single-producer uses).
package hub

import (
	"sync"
	"sync/atomic"

	"github.com/synctv-org/synctv-core/internal/clusterevent"
	"github.com/synctv-org/synctv-core/internal/metrics"
)

// DefaultQueueDepth is the default bounded subscription queue size.
const DefaultQueueDepth = 1000

// Subscription is a live registration in the Hub.
type Subscription struct {
	id      uint64
	room    string
	events  chan *clusterevent.Event
	dropped uint64
}

// ID returns the subscription's unique identifier.
func (s *Subscription) ID() uint64 { return s.id }

// Room returns the room this subscription is attached to.
func (s *Subscription) Room() string { return s.room }

// Events returns the channel of delivered events. The caller should range
// over it (or select against it) until the subscription is unsubscribed,
// at which point the channel is closed.
func (s *Subscription) Events() <-chan *clusterevent.Event { return s.events }

// Dropped reports how many events this subscription has dropped due to a
// full queue.
func (s *Subscription) Dropped() uint64 { return atomic.LoadUint64(&s.dropped) }

type room struct {
	mu   sync.RWMutex
	subs map[uint64]*Subscription
}

// Hub is the in-process per-room broadcast tree.
type Hub struct {
	queueDepth int
	nextID     uint64
	mu         sync.RWMutex
	rooms      map[string]*room
}

// New creates a Hub whose subscription queues hold queueDepth events
// (DefaultQueueDepth if <= 0).
func New(queueDepth int) *Hub {
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}
	return &Hub{
		queueDepth: queueDepth,
		rooms:      make(map[string]*room),
	}
}

func (h *Hub) roomFor(roomID string, create bool) *room {
	h.mu.RLock()
	r, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if ok || !create {
		return r
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok = h.rooms[roomID]; ok {
		return r
	}
	r = &room{subs: make(map[uint64]*Subscription)}
	h.rooms[roomID] = r
	return r
}

// Subscribe registers a new subscription for roomID and returns it.
func (h *Hub) Subscribe(roomID string) *Subscription {
	r := h.roomFor(roomID, true)

	sub := &Subscription{
		id:     atomic.AddUint64(&h.nextID, 1),
		room:   roomID,
		events: make(chan *clusterevent.Event, h.queueDepth),
	}

	r.mu.Lock()
	r.subs[sub.id] = sub
	r.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscription and closes its event channel. Safe to
// call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.RLock()
	r, ok := h.rooms[sub.room]
	h.mu.RUnlock()
	if !ok {
		return
	}
	r.mu.Lock()
	if _, ok := r.subs[sub.id]; ok {
		delete(r.subs, sub.id)
		close(sub.events)
	}
	r.mu.Unlock()
}

// Broadcast delivers event to every live subscription of roomID using
// try-send: a subscription whose queue is full drops this event without
// affecting delivery to any other subscription. Events from a single caller
// reach each subscription in the
// order Broadcast was called, because sending to a buffered channel
// preserves FIFO order per sender per channel.
func (h *Hub) Broadcast(roomID string, event *clusterevent.Event) {
	r := h.roomFor(roomID, false)
	if r == nil {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subs {
		select {
		case s.events <- event:
		default:
			atomic.AddUint64(&s.dropped, 1)
			metrics.HubDrops.Inc()
		}
	}
}

// SubscriberCount returns the number of live subscriptions for a room.
func (h *Hub) SubscriberCount(roomID string) int {
	r := h.roomFor(roomID, false)
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
