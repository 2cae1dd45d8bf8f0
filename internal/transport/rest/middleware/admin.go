package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/okso-hub/scrum-poker-sub000/internal/model"
	"github.com/okso-hub/scrum-poker-sub000/internal/store"
)

type contextKey string

const (
	RoomIDKey     contextKey = "roomId"
	CallerAddrKey contextKey = "callerAddr"
)

// AdminMiddleware gates every admin-only mutation: the room id must parse to
// a positive number and the caller's address must be the one that created
// the room. No token is issued anywhere; the creating address is the
// credential.
type AdminMiddleware struct {
	store *store.RoomStore
}

func NewAdminMiddleware(roomStore *store.RoomStore) *AdminMiddleware {
	return &AdminMiddleware{store: roomStore}
}

// RequireAdmin validates the room id and caller identity before the request
// reaches the game engine.
func (m *AdminMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roomID, err := ParseRoomID(r)
		if err != nil {
			writeError(w, model.ErrBadRequest("Invalid room id"))
			return
		}

		addr := ClientAddr(r)
		if !m.store.IsAdmin(roomID, addr) {
			writeError(w, model.ErrForbidden("Admin access required"))
			return
		}

		ctx := context.WithValue(r.Context(), RoomIDKey, roomID)
		ctx = context.WithValue(ctx, CallerAddrKey, addr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// writeError keeps gate failures on the same JSON wire shape the handler
// package emits.
func writeError(w http.ResponseWriter, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	json.NewEncoder(w).Encode(apiErr)
}

// ParseRoomID reads the room id from the path or, failing that, the query
// string, and requires a positive integer.
func ParseRoomID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["roomId"]
	if raw == "" {
		raw = r.URL.Query().Get("roomId")
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ErrBadRequest("Invalid room id")
	}
	return id, nil
}

// RoomID extracts the validated room id from context.
func RoomID(ctx context.Context) int64 {
	if v := ctx.Value(RoomIDKey); v != nil {
		return v.(int64)
	}
	return 0
}

// ClientAddr resolves the caller's network address, honoring proxies that
// set X-Forwarded-For.
func ClientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
