// If you are AI: This file implements the health and readiness endpoints
// for monitoring and integration tests.

package health

import (
	"net/http"

	"github.com/synctv-org/synctv-core/internal/registry"
)

// Service provides health and readiness check functionality.
type Service struct {
	registry *registry.Registry
}

// New creates a new health service instance. reg may be nil, in which
// case readiness always reports healthy.
func New(reg *registry.Registry) *Service {
	return &Service{registry: reg}
}

// RegisterRoutes adds health check routes to the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
}

// handleHealth responds 200 OK to indicate the process is running.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleReady responds 200 OK only if the registry store is reachable,
// so a load balancer can stop routing publish/play traffic to a node that
// has lost its connection to the cluster store.
func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.registry != nil {
		if _, err := s.registry.ListActive(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
