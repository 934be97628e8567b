package handler

import (
	"testing"

	"github.com/corkboard/backend/internal/model"
)

func newTestClient() *wsClient {
	return &wsClient{
		send:  make(chan model.WSOutbound, wsSendBuffer),
		rooms: make(map[string]struct{}),
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	a := newTestClient()
	b := newTestClient()
	c := newTestClient()

	hub.join(a, "general")
	hub.join(b, "general")
	hub.join(c, "other")

	hub.Broadcast("general", model.WSOutbound{Type: model.WSTypeMessage, Room: "general"})

	if len(a.send) != 1 || len(b.send) != 1 {
		t.Fatalf("room members must receive the frame")
	}
	if len(c.send) != 0 {
		t.Fatalf("other rooms must not receive the frame")
	}
}

func TestHubLeave(t *testing.T) {
	hub := NewHub()
	a := newTestClient()

	hub.join(a, "general")
	hub.leave(a, "general")
	hub.Broadcast("general", model.WSOutbound{Type: model.WSTypeMessage, Room: "general"})

	if len(a.send) != 0 {
		t.Fatalf("left client must not receive frames")
	}
	if len(hub.rooms) != 0 {
		t.Fatalf("empty rooms must be dropped")
	}
}

func TestHubRemoveAllRooms(t *testing.T) {
	hub := NewHub()
	a := newTestClient()

	hub.join(a, "general")
	hub.join(a, "random")
	hub.remove(a)

	if len(hub.rooms) != 0 {
		t.Fatalf("removed client must leave every room")
	}
}

func TestHubSkipsFullBuffers(t *testing.T) {
	hub := NewHub()
	slow := &wsClient{send: make(chan model.WSOutbound), rooms: make(map[string]struct{})}
	fast := newTestClient()

	hub.join(slow, "general")
	hub.join(fast, "general")

	// The unbuffered slow client has no reader; Broadcast must not block.
	hub.Broadcast("general", model.WSOutbound{Type: model.WSTypeMessage, Room: "general"})

	if len(fast.send) != 1 {
		t.Fatalf("fast client must still receive the frame")
	}
}
