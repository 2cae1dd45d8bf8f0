package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okso-hub/scrum-poker-sub000/internal/model"
)

func receive(t *testing.T, conn *Connection) []byte {
	t.Helper()
	select {
	case msg, ok := <-conn.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		return msg
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no message received")
		return nil
	}
}

func expectNothing(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case msg := <-conn.send:
		t.Fatalf("unexpected message %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_BroadcastScopedToRoom(t *testing.T) {
	hub := NewHub()

	c1 := newConnection()
	c2 := newConnection()
	c3 := newConnection()
	untagged := newConnection()

	hub.tag(c1, 1, "admin", "alice")
	hub.tag(c2, 1, "player", "bob")
	hub.tag(c3, 2, "player", "carol")

	hub.Broadcast(1, model.UserJoinedEvent{Event: model.EventUserJoined, Name: "bob"})

	for _, conn := range []*Connection{c1, c2} {
		var event map[string]interface{}
		if err := json.Unmarshal(receive(t, conn), &event); err != nil {
			t.Fatalf("invalid event payload: %v", err)
		}
		if event["event"] != model.EventUserJoined {
			t.Errorf("unexpected event %v", event["event"])
		}
	}

	// Other rooms and untagged connections are skipped silently.
	expectNothing(t, c3)
	expectNothing(t, untagged)
}

func TestHub_FirstHandshakeWins(t *testing.T) {
	hub := NewHub()
	conn := newConnection()

	hub.tag(conn, 1, "player", "bob")
	hub.tag(conn, 2, "admin", "mallory")

	hub.Broadcast(1, model.UserJoinedEvent{Event: model.EventUserJoined})
	receive(t, conn)

	hub.Broadcast(2, model.UserJoinedEvent{Event: model.EventUserJoined})
	expectNothing(t, conn)

	if conn.name != "bob" || conn.roomID != 1 {
		t.Errorf("retag must be ignored, got room=%d name=%s", conn.roomID, conn.name)
	}
}

func TestHub_DisconnectUser(t *testing.T) {
	hub := NewHub()
	banned := newConnection()
	other := newConnection()
	hub.tag(banned, 1, "player", "bob")
	hub.tag(other, 1, "player", "carol")

	hub.DisconnectUser(1, "bob")

	var event model.BannedByAdminEvent
	if err := json.Unmarshal(receive(t, banned), &event); err != nil {
		t.Fatalf("invalid notice payload: %v", err)
	}
	if event.Event != model.EventBannedByAdmin {
		t.Errorf("unexpected event %q", event.Event)
	}

	// Channel is closed after the terminal notice.
	if _, ok := <-banned.send; ok {
		t.Error("expected closed send channel after disconnect")
	}

	// Others in the room are untouched and still reachable.
	hub.Broadcast(1, model.UserJoinedEvent{Event: model.EventUserJoined})
	receive(t, other)
}

func TestHub_RemoveConnection(t *testing.T) {
	hub := NewHub()
	conn := newConnection()
	hub.tag(conn, 1, "player", "bob")

	hub.remove(conn)

	if _, ok := <-conn.send; ok {
		t.Error("expected closed send channel after remove")
	}
	// Broadcast after removal must not panic or deliver.
	hub.Broadcast(1, model.UserJoinedEvent{Event: model.EventUserJoined})
}

func TestConnection_EnqueueDropsWhenFull(t *testing.T) {
	conn := newConnection()
	for i := 0; i < cap(conn.send)+10; i++ {
		conn.enqueue([]byte("x"))
	}
	if len(conn.send) != cap(conn.send) {
		t.Errorf("expected full buffer, got %d", len(conn.send))
	}
}

func TestParseHandshake(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantID   int64
		wantName string
		wantOK   bool
	}{
		{"full handshake", `{"roomId":123456,"role":"player","payload":{"name":"bob"}}`, 123456, "bob", true},
		{"string room id", `{"roomId":"123456","role":"admin","payload":{"name":"alice"}}`, 123456, "alice", true},
		{"legacy bare id", `123456`, 123456, "", true},
		{"legacy quoted id", `"123456"`, 123456, "", true},
		{"zero id", `{"roomId":0}`, 0, "", false},
		{"negative id", `-5`, 0, "", false},
		{"garbage", `hello`, 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, _, name, ok := parseHandshake([]byte(tt.data))
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if id != tt.wantID || name != tt.wantName {
				t.Errorf("got id=%d name=%q, want id=%d name=%q", id, name, tt.wantID, tt.wantName)
			}
		})
	}
}
