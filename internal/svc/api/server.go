// If you are AI: This file provides HTTP API service integration.
// The API exposes read-only cluster and stream state without touching any
// media path.

package api

import (
	"net/http"
	"time"

	"github.com/synctv-org/synctv-core/internal/registry"
	"github.com/synctv-org/synctv-core/internal/stream"
)

// Service provides HTTP API functionality.
type Service struct {
	registry   *registry.Registry
	publishers *stream.PublisherSet
	startTime  int64
}

// NewService creates a new API service.
func NewService(reg *registry.Registry, publishers *stream.PublisherSet) *Service {
	return &Service{
		registry:   reg,
		publishers: publishers,
		startTime:  getCurrentTime(),
	}
}

// RegisterRoutes registers API routes on the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/server", s.handleServer)
	mux.HandleFunc("/api/streams", s.handleStreams)
}

// getCurrentTime returns current Unix timestamp. Extracted for testability.
func getCurrentTime() int64 {
	return time.Now().Unix()
}
