// If you are AI: This file contains unit tests for API handlers.
// Tests verify JSON responses and error handling.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/synctv-org/synctv-core/internal/ids"
	"github.com/synctv-org/synctv-core/internal/registry"
	"github.com/synctv-org/synctv-core/internal/stream"
)

func newTestService(t *testing.T) (*Service, *registry.Registry, *stream.PublisherSet) {
	t.Helper()
	store := registry.NewMemoryStore()
	reg := registry.New(store, 0, nil)
	publishers := stream.NewPublisherSet()
	return NewService(reg, publishers), reg, publishers
}

func TestHandleServer(t *testing.T) {
	service, _, _ := newTestService(t)

	req := httptest.NewRequest("GET", "/api/server", nil)
	w := httptest.NewRecorder()

	service.handleServer(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response ServerResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Version == "" {
		t.Error("version should not be empty")
	}
	if response.GoVersion == "" {
		t.Error("go_version should not be empty")
	}
	if len(response.EnabledServices) == 0 {
		t.Error("enabled_services should not be empty")
	}
}

func TestHandleStreamsEmpty(t *testing.T) {
	service, _, _ := newTestService(t)

	req := httptest.NewRequest("GET", "/api/streams", nil)
	w := httptest.NewRecorder()

	service.handleStreams(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response StreamsResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Streams) != 0 {
		t.Errorf("expected 0 streams, got %d", len(response.Streams))
	}
}

func TestHandleStreamsWithClaimedStream(t *testing.T) {
	service, reg, publishers := newTestService(t)

	key := ids.NewRoomMediaKey("room1", "cam1")
	epoch, ok, err := reg.TryClaim(context.Background(), key, "node1", "127.0.0.1:9000")
	if err != nil || !ok {
		t.Fatalf("claim failed: ok=%v err=%v", ok, err)
	}
	publishers.Put(stream.NewPublisher(key, "node1", epoch, reg, 0, 0, nil))

	req := httptest.NewRequest("GET", "/api/streams", nil)
	w := httptest.NewRecorder()

	service.handleStreams(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response StreamsResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Streams) != 1 {
		t.Fatalf("expected 1 stream, got %d", len(response.Streams))
	}
	if response.Streams[0].Room != "room1" || response.Streams[0].Media != "cam1" {
		t.Error("stream identity mismatch")
	}
	if response.Streams[0].OwnerNodeID != "node1" {
		t.Errorf("expected owner node1, got %s", response.Streams[0].OwnerNodeID)
	}
}

func TestHandleServerRejectsNonGet(t *testing.T) {
	service, _, _ := newTestService(t)

	req := httptest.NewRequest("POST", "/api/server", nil)
	w := httptest.NewRecorder()

	service.handleServer(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}
