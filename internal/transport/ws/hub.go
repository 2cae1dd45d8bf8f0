package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/okso-hub/scrum-poker-sub000/internal/model"
)

// Connection is one live socket. It becomes addressable for broadcasts only
// after its handshake has tagged it with a room and identity.
type Connection struct {
	ID   string
	send chan []byte

	mu     sync.Mutex
	tagged bool
	closed bool
	roomID int64
	role   string
	name   string
}

func newConnection() *Connection {
	return &Connection{
		ID:   uuid.New().String(),
		send: make(chan []byte, 256),
	}
}

// tag assigns room and identity. The first handshake wins; later attempts
// are ignored so a client cannot re-spoof its identity mid-session.
func (c *Connection) tag(roomID int64, role, name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tagged {
		return false
	}
	c.tagged = true
	c.roomID = roomID
	c.role = role
	c.name = name
	return true
}

// enqueue hands data to the write pump without blocking. A full buffer drops
// the message rather than stalling the sender.
func (c *Connection) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// close shuts the send channel once; the write pump then emits a close frame.
func (c *Connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Hub tracks tagged connections indexed by room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int64]map[*Connection]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[int64]map[*Connection]bool),
	}
}

// tag registers the connection under its room on a winning handshake.
func (h *Hub) tag(conn *Connection, roomID int64, role, name string) {
	if !conn.tag(roomID, role, name) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Connection]bool)
	}
	h.rooms[roomID][conn] = true
	log.Printf("connection %s tagged: room=%d role=%s name=%s", conn.ID, roomID, role, name)
}

// remove drops the connection from its room index and closes it.
func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	if conns, ok := h.rooms[conn.roomID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, conn.roomID)
		}
	}
	h.mu.Unlock()

	conn.close()
}

// Broadcast sends event to every open connection tagged with roomID
// (implements service.Broadcaster).
func (h *Hub) Broadcast(roomID int64, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal event for room %d: %v", roomID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.rooms[roomID] {
		conn.enqueue(data)
	}
}

// DisconnectUser sends the terminal ban notice to the one matching connection
// and tears it down immediately (implements service.Broadcaster).
func (h *Hub) DisconnectUser(roomID int64, playerName string) {
	data, _ := json.Marshal(model.BannedByAdminEvent{
		Event:   model.EventBannedByAdmin,
		Message: "You have been removed from this room",
	})

	h.mu.Lock()
	var target *Connection
	for conn := range h.rooms[roomID] {
		if conn.name == playerName {
			target = conn
			delete(h.rooms[roomID], conn)
			break
		}
	}
	h.mu.Unlock()

	if target == nil {
		return
	}
	target.enqueue(data)
	target.close()
	log.Printf("disconnected %s from room %d", playerName, roomID)
}
