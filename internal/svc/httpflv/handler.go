// If you are AI: This file implements the HTTP handler for FLV stream requests.
// Handles GET /{room}/{media}.flv requests and manages subscriber lifecycle,
// transparently relaying from another node's Publisher via the pull manager
// when the stream isn't owned locally.

package httpflv

import (
	"context"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/synctv-org/synctv-core/internal/ids"
	"github.com/synctv-org/synctv-core/internal/registry"
	"github.com/synctv-org/synctv-core/internal/stream"
	"github.com/synctv-org/synctv-core/internal/xerr"
)

// Handler handles HTTP-FLV requests.
type Handler struct {
	registry    *registry.Registry
	publishers  *stream.PublisherSet
	pullManager *stream.PullManager
	nodeID      string
	log         *zap.SugaredLogger
}

// NewHandler creates a new HTTP-FLV handler.
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
	}
}

// ServeHTTP handles HTTP requests for FLV streams.
// Endpoint: GET /{room}/{media}.flv
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	urlPath := strings.TrimPrefix(r.URL.Path, "/")
	if !strings.HasSuffix(urlPath, ".flv") {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	streamPath := strings.TrimSuffix(urlPath, ".flv")

	key, err := ids.ParseRoomMediaKey(streamPath)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	pub, err := h.resolvePublisher(r.Context(), key)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "video/x-flv")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := NewSubscriber(w, DefaultQueueDepth)
	sinkID := pub.AttachSink(sub)
	defer pub.DetachSink(sinkID)

	if err := sub.WriteHeader(true, true); err != nil {
		return
	}

	w.(http.Flusher).Flush()

	if err := sub.Run(r.Context()); err != nil {
		h.log.Debugw("flv subscriber stopped", "key", key.String(), "error", err)
	}
}

// resolvePublisher returns the Publisher to attach to for key: the
// locally-owned one if this node holds the claim, or a relay Publisher fed
// by the pull manager if another node owns it.
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

// RegisterRoutes registers HTTP-FLV routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if path.Ext(r.URL.Path) == ".flv" {
			h.ServeHTTP(w, r)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	})
}
