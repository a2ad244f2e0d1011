package realtime

import (
	"log/slog"
	"sync"
)

// Hub tracks which clients sit in which room. Rooms are keyed by the
// subject label, so everyone watching the same story shares a room.
// All membership state lives behind one mutex; there is no broker
// goroutine to feed or drain.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*Client]bool
	log   *slog.Logger
}

// NewHub returns an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		rooms: make(map[string]map[*Client]bool),
		log:   log.With("component", "hub"),
	}
}

// Join moves a client into a room, leaving its previous room first. A
// client is in at most one room at a time.
func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.room != "" && c.room != room {
		h.removeLocked(c)
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[c] = true
	c.room = room
	h.log.Debug("client joined room", "client", c.id, "room", room, "size", len(members))
}

// Leave removes a client from its room, dropping the room once empty.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	if c.room == "" {
		return
	}
	if members, ok := h.rooms[c.room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, c.room)
		}
	}
	c.room = ""
}

// Broadcast delivers a message to every client in a room. A client
// whose send buffer is full is disconnected rather than allowed to
// stall the rest of the room.
func (h *Hub) Broadcast(room string, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.rooms[room] {
		if !c.enqueue(msg) {
			h.log.Warn("dropping slow client", "client", c.id, "room", room)
			h.removeLocked(c)
			c.shutdown()
		}
	}
}

// RoomSize reports how many clients are in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}
