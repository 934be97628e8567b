package handler

import (
	"sync"

	"github.com/corkboard/backend/internal/model"
)

// Hub fans chat frames out to every socket subscribed to a room. All state
// is process-local; horizontally scaled instances each see only their own
// connections.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*wsClient]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*wsClient]struct{})}
}

func (h *Hub) join(c *wsClient, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*wsClient]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

func (h *Hub) leave(c *wsClient, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detach(c, room)
}

// remove drops the client from every room it joined.
func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.rooms {
		h.detach(c, room)
	}
}

func (h *Hub) detach(c *wsClient, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast delivers out to every member of room. Slow clients whose send
// buffer is full are skipped rather than blocking the hub.
func (h *Hub) Broadcast(room string, out model.WSOutbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[room] {
		select {
		case c.send <- out:
		default:
		}
	}
}
