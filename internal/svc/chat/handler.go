// If you are AI: This file is the Stream Message Handler's WebSocket front
// door: it upgrades GET /ws/chat/{room}/{user} and hands the connection to
// connhandler.Handler, which owns the per-connection read/write loops,
// rate limiting, and fan-out through the Room Message Hub and Cluster
// Pub/Sub.
package chat

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/synctv-org/synctv-core/internal/clusterbus"
	"github.com/synctv-org/synctv-core/internal/connhandler"
	"github.com/synctv-org/synctv-core/internal/hub"
	"github.com/synctv-org/synctv-core/internal/ratelimit"
)

// Handler upgrades chat/danmaku WebSocket connections and runs each one
// through a connhandler.Handler.
type Handler struct {
	hub            *hub.Hub
	bus            *clusterbus.Bus
	rateLimitPerSec float64
	rateLimitBurst  float64
	log            *zap.SugaredLogger
	upgrader       websocket.Upgrader
}

// NewHandler creates a chat Handler. bus may be nil for single-node mode.
func NewHandler(h *hub.Hub, bus *clusterbus.Bus, rateLimitPerSec, rateLimitBurst float64, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{
		hub:             h,
		bus:             bus,
		rateLimitPerSec: rateLimitPerSec,
		rateLimitBurst:  rateLimitBurst,
		log:             log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles WebSocket upgrade and runs the chat session.
// Endpoint: GET /ws/chat/{room}/{user}
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	urlPath := strings.TrimPrefix(r.URL.Path, "/ws/chat/")
	if urlPath == r.URL.Path {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	room, user, ok := strings.Cut(urlPath, "/")
	if !ok || room == "" || user == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	limit := ratelimit.New(h.rateLimitPerSec, h.rateLimitBurst)
	session := connhandler.New(conn, room, user, h.hub, h.bus, limit, h.log)
	if err := session.Run(r.Context()); err != nil {
		h.log.Debugw("chat session stopped", "room", room, "user", user, "error", err)
	}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/chat/", h.ServeHTTP)
}
