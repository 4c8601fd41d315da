package connhandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/synctv-org/synctv-core/internal/clusterevent"
	"github.com/synctv-org/synctv-core/internal/hub"
	"github.com/synctv-org/synctv-core/internal/ratelimit"
)

type fakeConn struct {
	mu       sync.Mutex
	inbound  [][]byte
	inIdx    int
	outbound [][]byte
	closed   bool
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inIdx >= len(f.inbound) {
		return 0, nil, io.EOF
	}
	msg := f.inbound[f.inIdx]
	f.inIdx++
	return 1, msg, nil
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("write on closed connection")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.outbound = append(f.outbound, cp)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) outboundCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outbound)
}

func jsonMsg(t *testing.T, m ClientMessage) []byte {
	t.Helper()
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHandlerBroadcastsValidChatMessage(t *testing.T) {
	h := hub.New(10)
	conn := &fakeConn{inbound: [][]byte{jsonMsg(t, ClientMessage{Type: Chat, Body: "hello"})}}
	limit := ratelimit.New(100, 100)

	handler := New(conn, "room1", "u1", h, nil, limit, nil)

	observer := h.Subscribe("room1")
	_ = handler.Run(context.Background())

	select {
	case ev := <-observer.Events():
		if ev.Type != clusterevent.ChatMessage {
			t.Errorf("expected ChatMessage, got %v", ev.Type)
		}
	default:
		t.Error("expected chat message to be broadcast to the room")
	}
}

func TestHandlerRejectsEmptyBodyWithoutDisconnecting(t *testing.T) {
	h := hub.New(10)
	conn := &fakeConn{inbound: [][]byte{
		jsonMsg(t, ClientMessage{Type: Chat, Body: "   "}),
		jsonMsg(t, ClientMessage{Type: Chat, Body: "real message"}),
	}}
	limit := ratelimit.New(100, 100)
	handler := New(conn, "room1", "u1", h, nil, limit, nil)

	observer := h.Subscribe("room1")
	_ = handler.Run(context.Background())

	count := 0
	for {
		select {
		case <-observer.Events():
			count++
		default:
			goto done
		}
	}
done:
	if count != 1 {
		t.Errorf("expected exactly 1 broadcast (blank body skipped), got %d", count)
	}
}

func TestHandlerRateLimitsExcessMessages(t *testing.T) {
	h := hub.New(10)
	msgs := make([][]byte, 5)
	for i := range msgs {
		msgs[i] = jsonMsg(t, ClientMessage{Type: Chat, Body: "spam"})
	}
	conn := &fakeConn{inbound: msgs}
	limit := ratelimit.New(0, 1) // one token, never refills within the test

	handler := New(conn, "room1", "u1", h, nil, limit, nil)
	observer := h.Subscribe("room1")
	_ = handler.Run(context.Background())

	count := 0
	for {
		select {
		case <-observer.Events():
			count++
		default:
			goto done
		}
	}
done:
	if count != 1 {
		t.Errorf("expected only the first message to pass the rate limit, got %d", count)
	}
}

func TestWriteLoopClosesConnectionOnWriteFailure(t *testing.T) {
	h := hub.New(10)
	conn := &fakeConn{}
	limit := ratelimit.New(100, 100)
	handler := New(conn, "room1", "u1", h, nil, limit, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler.sub = h.Subscribe("room1")
	conn.closed = true // force every write to fail

	done := make(chan struct{})
	go func() {
		handler.writeLoop(ctx)
		close(done)
	}()

	h.Broadcast("room1", &clusterevent.Event{EventID: "e1", Type: clusterevent.ChatMessage, Room: "room1"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected writeLoop to exit after a failed write")
	}
}
