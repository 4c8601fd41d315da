package hub

import (
	"testing"

	"github.com/synctv-org/synctv-core/internal/clusterevent"
)

func chatEvent(id string) *clusterevent.Event {
	return &clusterevent.Event{EventID: id, Type: clusterevent.ChatMessage, Room: "roomA"}
}

func TestBroadcastDeliversToAllSubscribers(t *testing.T) {
	h := New(10)
	s1 := h.Subscribe("roomA")
	s2 := h.Subscribe("roomA")

	h.Broadcast("roomA", chatEvent("e1"))

	for _, s := range []*Subscription{s1, s2} {
		select {
		case ev := <-s.Events():
			if ev.EventID != "e1" {
				t.Errorf("unexpected event %v", ev)
			}
		default:
			t.Error("expected event to be delivered")
		}
	}
}

func TestBroadcastIsRoomScoped(t *testing.T) {
	h := New(10)
	s1 := h.Subscribe("roomA")
	s2 := h.Subscribe("roomB")

	h.Broadcast("roomA", chatEvent("e1"))

	select {
	case <-s1.Events():
	default:
		t.Error("roomA subscriber should receive the event")
	}
	select {
	case <-s2.Events():
		t.Error("roomB subscriber should not receive roomA's event")
	default:
	}
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	h := New(4)
	slow := h.Subscribe("roomA")
	fast := h.Subscribe("roomA")

	for i := 0; i < 2000; i++ {
		h.Broadcast("roomA", chatEvent("e"))
	}

	if slow.Dropped() == 0 {
		t.Error("slow subscriber's queue should have overflowed and dropped events")
	}

	drained := 0
	for {
		select {
		case <-fast.Events():
			drained++
		default:
			goto done
		}
	}
done:
	if drained == 0 {
		t.Error("fast subscriber should still have received events despite the slow one")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := New(10)
	s := h.Subscribe("roomA")
	h.Unsubscribe(s)

	if _, ok := <-s.Events(); ok {
		t.Error("events channel should be closed after unsubscribe")
	}
	if h.SubscriberCount("roomA") != 0 {
		t.Error("unsubscribe should remove the subscription from the room")
	}
}
