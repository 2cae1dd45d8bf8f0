package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// handshakeMessage is the first frame a client sends after connecting.
// RoomID is a json.Number so numeric and string-typed ids both parse.
type handshakeMessage struct {
	RoomID  json.Number `json:"roomId"`
	Role    string      `json:"role"`
	Payload struct {
		Name string `json:"name"`
	} `json:"payload"`
}

// Handler upgrades HTTP requests to WebSocket connections.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// ServeWS handles GET /ws. Identity is established by the in-band handshake,
// not the upgrade request.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := newConnection()

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.remove(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Only the handshake is meaningful; the hub ignores retags and
		// everything else clients might send.
		roomID, role, name, ok := parseHandshake(data)
		if !ok {
			continue
		}
		h.hub.tag(conn, roomID, role, name)
	}
}

// parseHandshake accepts {roomId, role, payload:{name}} or, for legacy
// clients, a bare room-id string.
func parseHandshake(data []byte) (roomID int64, role, name string, ok bool) {
	var msg handshakeMessage
	if err := json.Unmarshal(data, &msg); err == nil && msg.RoomID.String() != "" {
		if id, err := msg.RoomID.Int64(); err == nil && id > 0 {
			return id, msg.Role, msg.Payload.Name, true
		}
	}

	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
		return id, "", "", true
	}
	return 0, "", "", false
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
