package clusterbus

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/synctv-org/synctv-core/internal/clusterevent"
	"github.com/synctv-org/synctv-core/internal/dedup"
	"github.com/synctv-org/synctv-core/internal/hub"
)

func newTestBus(t *testing.T, onKick KickPublisherFunc) (*Bus, *hub.Hub) {
	t.Helper()
	h := hub.New(10)
	dd := dedup.New(time.Second)
	b := New(nil, "", "n1", h, dd, nil, onKick)
	return b, h
}

func TestHandleIncomingDeduplicatesAcrossDeliveries(t *testing.T) {
	b, h := newTestBus(t, nil)
	sub := h.Subscribe("roomA")

	event := clusterevent.Event{EventID: "abc123456789", Type: clusterevent.ChatMessage, Room: "roomA"}
	payload, _ := json.Marshal(event)

	b.handleIncoming(string(payload))
	b.handleIncoming(string(payload))

	count := 0
	for {
		select {
		case <-sub.Events():
			count++
		default:
			goto done
		}
	}
done:
	if count != 1 {
		t.Errorf("expected exactly one broadcast after duplicate delivery, got %d", count)
	}
}

func TestHandleIncomingRoutesKickPublisherSideChannel(t *testing.T) {
	var kicked *clusterevent.Event
	b, h := newTestBus(t, func(e *clusterevent.Event) { kicked = e })
	sub := h.Subscribe("roomA")

	event := clusterevent.Event{EventID: "k1", Type: clusterevent.KickPublisher, Room: "roomA"}
	payload, _ := json.Marshal(event)
	b.handleIncoming(string(payload))

	if kicked == nil || kicked.EventID != "k1" {
		t.Error("KickPublisher should be routed to the side-channel callback")
	}
	select {
	case <-sub.Events():
		t.Error("KickPublisher must not be broadcast to room subscribers")
	default:
	}
}

func TestHandleIncomingIgnoresMalformedPayload(t *testing.T) {
	b, _ := newTestBus(t, nil)
	b.handleIncoming("not json")
}

func TestPublishBackpressure(t *testing.T) {
	h := hub.New(10)
	dd := dedup.New(time.Second)
	b := New(nil, "", "n1", h, dd, nil, nil)
	b.outbound = make(chan *clusterevent.Event, 1)

	if err := b.Publish(&clusterevent.Event{EventID: "a"}); err != nil {
		t.Fatalf("first publish should succeed: %v", err)
	}
	if err := b.Publish(&clusterevent.Event{EventID: "b"}); err == nil {
		t.Error("publish into a full outbound queue should report backpressure")
	}
}
