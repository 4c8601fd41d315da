// If you are AI: This file contains unit tests for the health and
// readiness endpoints.

package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/synctv-org/synctv-core/internal/registry"
)

func TestHandleHealthAlwaysOK(t *testing.T) {
	svc := New(nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	svc.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestHandleHealthRejectsNonGet(t *testing.T) {
	svc := New(nil)

	req := httptest.NewRequest("POST", "/healthz", nil)
	w := httptest.NewRecorder()
	svc.handleHealth(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestHandleReadyWithNilRegistryIsAlwaysReady(t *testing.T) {
	svc := New(nil)

	req := httptest.NewRequest("GET", "/readyz", nil)
	w := httptest.NewRecorder()
	svc.handleReady(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestHandleReadyWithReachableRegistry(t *testing.T) {
	store := registry.NewMemoryStore()
	reg := registry.New(store, 0, nil)
	svc := New(reg)

	req := httptest.NewRequest("GET", "/readyz", nil)
	w := httptest.NewRecorder()
	svc.handleReady(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestRegisterRoutes(t *testing.T) {
	mux := http.NewServeMux()
	New(nil).RegisterRoutes(mux)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, w.Code)
		}
	}
}
