package ws

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/vineet-vishwakarma/Chat-App/internal/metrics"
	"github.com/vineet-vishwakarma/Chat-App/internal/room"
	"github.com/vineet-vishwakarma/Chat-App/internal/session"
)

// Hub tracks every live connection and the per-room subscriber sets built
// from joinRoom events. Delivery is synchronous with the call: a broadcast
// reaches exactly the connections subscribed at that moment. A connection
// whose send buffer is full is dropped instead of blocking the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[session.Conn]struct{}
	rooms   map[room.ID]*RoomHub
}

func NewHub() *Hub {
	return &Hub{clients: make(map[session.Conn]struct{}), rooms: make(map[room.ID]*RoomHub)}
}

// RoomHub is the subscriber set of one room.
type RoomHub struct {
	id      room.ID
	mu      sync.RWMutex
	clients map[session.Conn]struct{}
}

func newRoomHub(id room.ID) *RoomHub {
	return &RoomHub{id: id, clients: make(map[session.Conn]struct{})}
}

// Online returns the number of subscribed connections.
func (rh *RoomHub) Online() int {
	rh.mu.RLock()
	defer rh.mu.RUnlock()
	return len(rh.clients)
}

func (rh *RoomHub) deliver(payload []byte) []session.Conn {
	rh.mu.RLock()
	defer rh.mu.RUnlock()
	var failed []session.Conn
	for c := range rh.clients {
		if !c.Send(payload) {
			failed = append(failed, c)
		}
	}
	return failed
}

func (h *Hub) Register(c session.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		return
	}
	h.clients[c] = struct{}{}
	metrics.WsConnections.Inc()
}

// Unregister removes c from the hub and from every room. It is idempotent.
func (h *Hub) Unregister(c session.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	metrics.WsConnections.Dec()
	for id, rh := range h.rooms {
		rh.mu.Lock()
		delete(rh.clients, c)
		empty := len(rh.clients) == 0
		rh.mu.Unlock()
		if empty {
			delete(h.rooms, id)
		}
	}
}

// GetRoom returns the room's subscriber set, creating it on first use.
func (h *Hub) GetRoom(id room.ID) *RoomHub {
	h.mu.RLock()
	rh := h.rooms[id]
	h.mu.RUnlock()
	if rh != nil {
		return rh
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.getRoomLocked(id)
}

func (h *Hub) getRoomLocked(id room.ID) *RoomHub {
	rh := h.rooms[id]
	if rh == nil {
		rh = newRoomHub(id)
		h.rooms[id] = rh
	}
	return rh
}

// Subscribe adds a registered connection to the room. Subscribing twice is
// a no-op; unregistered connections are ignored.
func (h *Hub) Subscribe(id room.ID, c session.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	rh := h.getRoomLocked(id)
	rh.mu.Lock()
	rh.clients[c] = struct{}{}
	rh.mu.Unlock()
}

func (h *Hub) Broadcast(id room.ID, payload []byte) {
	h.mu.RLock()
	rh := h.rooms[id]
	h.mu.RUnlock()
	if rh == nil {
		return
	}
	h.drop(rh.deliver(payload))
}

func (h *Hub) BroadcastGlobal(payload []byte) {
	h.mu.RLock()
	var failed []session.Conn
	for c := range h.clients {
		if !c.Send(payload) {
			failed = append(failed, c)
		}
	}
	h.mu.RUnlock()
	h.drop(failed)
}

func (h *Hub) drop(failed []session.Conn) {
	for _, c := range failed {
		log.Warn().Str("conn_id", c.ID()).Msg("dropping slow connection")
		h.Unregister(c)
	}
}

// Online returns the number of connections subscribed to the room.
func (h *Hub) Online(id room.ID) int {
	h.mu.RLock()
	rh := h.rooms[id]
	h.mu.RUnlock()
	if rh == nil {
		return 0
	}
	return rh.Online()
}

// Connections returns the number of registered connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
