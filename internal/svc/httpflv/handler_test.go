// If you are AI: This file contains unit tests for the HTTP-FLV handler.
// Tests verify FLV header generation and not-found behavior for unclaimed
// or remote-only streams.

package httpflv

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/synctv-org/synctv-core/internal/gop"
	"github.com/synctv-org/synctv-core/internal/ids"
	"github.com/synctv-org/synctv-core/internal/registry"
	"github.com/synctv-org/synctv-core/internal/stream"
)

func newTestHandler(t *testing.T) (*Handler, *registry.Registry, *stream.PublisherSet) {
	t.Helper()
	store := registry.NewMemoryStore()
	reg := registry.New(store, 0, nil)
	publishers := stream.NewPublisherSet()
	pullManager := stream.NewPullManager(reg, nil, 0, 0, nil)
	return NewHandler(reg, publishers, pullManager, "node1", nil), reg, publishers
}

func TestHTTPFLVHandlerNotFound(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/live/nonexistent.flv", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestHTTPFLVHandlerWithLocalPublisher(t *testing.T) {
	handler, reg, publishers := newTestHandler(t)

	key := ids.NewRoomMediaKey("live", "test")
	epoch, ok, err := reg.TryClaim(context.Background(), key, "node1", "127.0.0.1:9000")
	if err != nil || !ok {
		t.Fatalf("claim failed: ok=%v err=%v", ok, err)
	}
	pub := stream.NewPublisher(key, "node1", epoch, reg, 0, 0, nil)
	pub.PublishFrame(gop.NewFrame(gop.Video, 0, []byte{0x17, 0x00}, true))
	publishers.Put(pub)

	req := httptest.NewRequest("GET", "/live/test.flv", nil)
	w := httptest.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	req = req.WithContext(ctx)

	done := make(chan bool, 1)
	go func() {
		handler.ServeHTTP(w, req)
		done <- true
	}()

	time.Sleep(200 * time.Millisecond)

	if ct := w.Header().Get("Content-Type"); ct != "video/x-flv" {
		t.Errorf("expected Content-Type video/x-flv, got %s", ct)
	}
	body := w.Body.Bytes()
	if !bytes.HasPrefix(body, []byte("FLV")) {
		t.Errorf("response does not start with FLV signature, got: %v", body)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
	}
}
