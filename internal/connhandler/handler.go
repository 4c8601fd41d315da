// Handler is the per-connection state machine for a room's chat/danmaku
// WebSocket clients: it rate-limits and content-filters inbound messages,
// fans accepted ones out through the Hub and cluster bus, and delivers
// outbound room events back over the socket with its own bounded send
// queue so one slow client never stalls the goroutine publishing to it.
package connhandler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/synctv-org/synctv-core/internal/clusterbus"
	"github.com/synctv-org/synctv-core/internal/clusterevent"
	"github.com/synctv-org/synctv-core/internal/hub"
	"github.com/synctv-org/synctv-core/internal/ids"
	"github.com/synctv-org/synctv-core/internal/ratelimit"
	"github.com/synctv-org/synctv-core/internal/xerr"
)

// DefaultMaxMessageBytes rejects any single message body larger than this.
const DefaultMaxMessageBytes = 4096

// Conn is the minimal transport a Handler needs; satisfied by
// *gorilla/websocket.Conn.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Handler drives one client connection attached to one room.
type Handler struct {
	conn  Conn
	room  string
	user  string
	hub   *hub.Hub
	bus   *clusterbus.Bus
	limit *ratelimit.TokenBucket
	log   *zap.SugaredLogger

	sub *hub.Subscription
}

// New creates a Handler for conn, attached to room on behalf of user.
func New(conn Conn, room, user string, h *hub.Hub, bus *clusterbus.Bus, limit *ratelimit.TokenBucket, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{
		conn:  conn,
		room:  room,
		user:  user,
		hub:   h,
		bus:   bus,
		limit: limit,
		log:   log,
	}
}

// Run subscribes to the room, launches the outbound writer, and blocks
// reading inbound messages until the connection closes or ctx is canceled.
func (h *Handler) Run(ctx context.Context) error {
	h.sub = h.hub.Subscribe(h.room)
	defer h.hub.Unsubscribe(h.sub)

	writeCtx, cancelWrite := context.WithCancel(ctx)
	defer cancelWrite()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(writeCtx)
	}()

	err := h.readLoop(ctx)
	cancelWrite()
	<-writerDone
	return err
}

func (h *Handler) readLoop(ctx context.Context) error {
	for {
		_, raw, err := h.conn.ReadMessage()
		if err != nil {
			return err
		}
		if len(raw) > DefaultMaxMessageBytes {
			continue
		}

		msg := ParseClientMessage(raw)
		switch msg.Type {
		case Heartbeat, Unknown:
			continue
		case Chat, Danmaku:
			if err := h.handleContent(ctx, msg); err != nil {
				if errors.Is(err, xerr.ErrValidation) {
					continue
				}
				return err
			}
		}
	}
}

func (h *Handler) handleContent(ctx context.Context, msg ClientMessage) error {
	if !h.limit.Allow() {
		return xerr.ErrValidation
	}
	if strings.TrimSpace(msg.Body) == "" {
		return xerr.ErrValidation
	}

	var payload json.RawMessage
	var err error
	eventType := clusterevent.ChatMessage
	if msg.Type == Chat {
		payload, err = json.Marshal(clusterevent.ChatPayload{Body: msg.Body})
	} else {
		eventType = clusterevent.Danmaku
		payload, err = json.Marshal(clusterevent.DanmakuPayload{Body: msg.Body, Mode: msg.Mode})
	}
	if err != nil {
		return err
	}

	event := &clusterevent.Event{
		EventID: ids.NewEventID(),
		Type:    eventType,
		Room:    h.room,
		User:    h.user,
		Payload: payload,
	}

	// Deliver locally immediately; the cluster publish reaches every other
	// node (and, via pub/sub echo plus dedup, this one too, harmlessly).
	h.hub.Broadcast(h.room, event)
	if h.bus != nil {
		if err := h.bus.Publish(event); err != nil {
			h.log.Warnw("publish chat event to cluster", "room", h.room, "error", err)
		}
	}
	return nil
}

// writeLoop delivers room events to the client, one blocking write at a
// time. A failed write closes the connection. A client that reads slowly is
// not closed: while a write blocks, further events wait in the hub
// subscription queue, and the hub drops new events for this subscription
// once that queue is full.
func (h *Handler) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-h.sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if err := h.conn.WriteMessage(1, data); err != nil {
				h.log.Infow("client write failed, closing", "room", h.room, "error", err)
				h.conn.Close()
				return
			}
		}
	}
}
