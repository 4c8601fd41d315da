// If you are AI: This file provides WebSocket-FLV service integration.
// The service is integrated into the main HTTP server.

package wsflv

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/synctv-org/synctv-core/internal/registry"
	"github.com/synctv-org/synctv-core/internal/stream"
)

// Service provides WebSocket-FLV streaming functionality.
type Service struct {
	handler *Handler
}

// NewService creates a new WebSocket-FLV service.
func NewService(reg *registry.Registry, publishers *stream.PublisherSet, pullManager *stream.PullManager, nodeID string, log *zap.SugaredLogger) *Service {
	return &Service{
		handler: NewHandler(reg, publishers, pullManager, nodeID, log),
	}
}

// RegisterRoutes registers WebSocket-FLV routes on the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.handler.RegisterRoutes(mux)
}
