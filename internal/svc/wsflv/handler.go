// If you are AI: This file implements the WebSocket handler for FLV stream
// requests. Handles GET /ws/{room}/{media} requests and manages subscriber
// lifecycle, relaying from a remote node's Publisher via the pull manager
// when the stream isn't owned locally.

package wsflv

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/synctv-org/synctv-core/internal/ids"
	"github.com/synctv-org/synctv-core/internal/registry"
	"github.com/synctv-org/synctv-core/internal/stream"
	"github.com/synctv-org/synctv-core/internal/xerr"
)

// Handler handles WebSocket-FLV requests.
type Handler struct {
	registry    *registry.Registry
	publishers  *stream.PublisherSet
	pullManager *stream.PullManager
	nodeID      string
	log         *zap.SugaredLogger
	upgrader    websocket.Upgrader
}

// NewHandler creates a new WebSocket-FLV handler.
func NewHandler(reg *registry.Registry, publishers *stream.PublisherSet, pullManager *stream.PullManager, nodeID string, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{
		registry:    reg,
		publishers:  publishers,
		pullManager: pullManager,
		nodeID:      nodeID,
		log:         log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles WebSocket upgrade and FLV streaming.
// Endpoint: GET /ws/{room}/{media}
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	urlPath := strings.TrimPrefix(r.URL.Path, "/ws/")
	if urlPath == r.URL.Path {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	key, err := ids.ParseRoomMediaKey(urlPath)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	pub, err := h.resolvePublisher(r.Context(), key)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := NewSubscriber(conn, DefaultQueueDepth)
	sinkID := pub.AttachSink(sub)
	defer pub.DetachSink(sinkID)

	if err := sub.WriteHeader(true, true); err != nil {
		return
	}

	if err := sub.Run(r.Context()); err != nil {
		h.log.Debugw("flv subscriber stopped", "key", key.String(), "error", err)
	}
}

func (h *Handler) resolvePublisher(ctx context.Context, key ids.RoomMediaKey) (*stream.Publisher, error) {
	if p := h.publishers.Get(key); p != nil {
		return p, nil
	}
	rec, ok, err := h.registry.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok || rec.NodeID == h.nodeID {
		return nil, xerr.ErrNoPublisher
	}
	ps := h.pullManager.GetOrCreate(ctx, key)
	return ps.Local, nil
}

// RegisterRoutes registers WebSocket-FLV routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/", h.ServeHTTP)
}
