// If you are AI: This file implements HTTP API handlers.
// All handlers are fast, allocation-light, and never block media paths.

package api

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// ServerResponse represents the /api/server response.
type ServerResponse struct {
	Version         string   `json:"version"`
	Uptime          int64    `json:"uptime"` // seconds
	GoVersion       string   `json:"go_version"`
	EnabledServices []string `json:"enabled_services"`
}

// StreamInfo represents one cluster-wide claimed stream.
type StreamInfo struct {
	Room        string `json:"room"`
	Media       string `json:"media"`
	OwnerNodeID string `json:"owner_node_id"`
	Epoch       int64  `json:"epoch"`
	LocalSinks  int    `json:"local_sinks"`
}

// StreamsResponse represents the /api/streams response.
type StreamsResponse struct {
	Streams []StreamInfo `json:"streams"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleServer handles GET /api/server.
// Returns server version, uptime, and enabled services.
func (s *Service) handleServer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	response := ServerResponse{
		Version:   "1.0.0",
		Uptime:    getCurrentTime() - s.startTime,
		GoVersion: runtime.Version(),
		EnabledServices: []string{
			"rtmp_ingest",
			"http_flv",
			"ws_flv",
			"pull_relay",
		},
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleStreams handles GET /api/streams.
// Returns every stream currently claimed anywhere in the cluster, plus
// this node's local viewer count for streams it owns.
func (s *Service) handleStreams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	keys, err := s.registry.ListActive(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "list active streams: "+err.Error())
		return
	}

	streams := make([]StreamInfo, 0, len(keys))
	for _, key := range keys {
		rec, ok, err := s.registry.Lookup(r.Context(), key)
		if err != nil || !ok {
			continue
		}
		info := StreamInfo{
			Room:        key.Room,
			Media:       key.Media,
			OwnerNodeID: rec.NodeID,
			Epoch:       rec.Epoch,
		}
		if p := s.publishers.Get(key); p != nil {
			info.LocalSinks = p.SinkCount()
		}
		streams = append(streams, info)
	}

	s.writeJSON(w, http.StatusOK, StreamsResponse{Streams: streams})
}

// writeJSON writes a JSON response.
func (s *Service) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
