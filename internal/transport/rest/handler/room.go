package handler

import (
	"encoding/json"
	"net/http"

	"github.com/okso-hub/scrum-poker-sub000/internal/model"
	"github.com/okso-hub/scrum-poker-sub000/internal/service"
	"github.com/okso-hub/scrum-poker-sub000/internal/store"
	"github.com/okso-hub/scrum-poker-sub000/internal/transport/rest/middleware"
)

// RoomHandler covers room lifecycle and membership endpoints.
type RoomHandler struct {
	store       *store.RoomStore
	broadcaster service.Broadcaster
}

func NewRoomHandler(roomStore *store.RoomStore, broadcaster service.Broadcaster) *RoomHandler {
	return &RoomHandler{store: roomStore, broadcaster: broadcaster}
}

// CreateRoomRequest is the request body for creating a room.
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// Create handles POST /create. The caller's address becomes the admin
// credential for the room's lifetime.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrBadRequest("Invalid request body"))
		return
	}

	roomID, err := h.store.CreateRoom(req.Name, middleware.ClientAddr(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"roomId": roomID})
}

// JoinRequest is the request body for joining a room.
type JoinRequest struct {
	Name   string `json:"name"`
	RoomID int64  `json:"roomId"`
}

// Join handles POST /join.
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrBadRequest("Invalid request body"))
		return
	}
	if req.RoomID <= 0 {
		writeError(w, model.ErrBadRequest("Invalid room id"))
		return
	}

	result, err := h.store.JoinRoom(req.RoomID, req.Name, middleware.ClientAddr(r))
	if err != nil {
		writeError(w, err)
		return
	}

	if players, err := h.store.GetParticipants(req.RoomID); err == nil {
		h.broadcaster.Broadcast(req.RoomID, model.UserJoinedEvent{
			Event:   model.EventUserJoined,
			Name:    result.Name,
			Rejoin:  result.Rejoin,
			Players: players,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"isAdmin":   result.IsAdmin,
		"name":      result.Name,
		"roomState": result.State,
	})
}

// IsAdmin handles GET /is-admin?roomId=.
func (h *RoomHandler) IsAdmin(w http.ResponseWriter, r *http.Request) {
	roomID, err := middleware.ParseRoomID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{
		"isAdmin": h.store.IsAdmin(roomID, middleware.ClientAddr(r)),
	})
}

// GetItems handles GET /room/{roomId}/items.
func (h *RoomHandler) GetItems(w http.ResponseWriter, r *http.Request) {
	roomID, err := middleware.ParseRoomID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := h.store.GetItems(roomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"items": items})
}

// SetItemsRequest is the request body for submitting the backlog.
type SetItemsRequest struct {
	Items []string `json:"items"`
}

// SetItems handles POST /room/{roomId}/items (admin only).
func (h *RoomHandler) SetItems(w http.ResponseWriter, r *http.Request) {
	roomID := middleware.RoomID(r.Context())

	var req SetItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrBadRequest("Items must be an array of strings"))
		return
	}

	if err := h.store.SetItems(roomID, req.Items); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Participants handles GET /room/{roomId}/participants.
func (h *RoomHandler) Participants(w http.ResponseWriter, r *http.Request) {
	roomID, err := middleware.ParseRoomID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	participants, err := h.store.GetParticipants(roomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]model.ParticipantInfo{"participants": participants})
}

// Status handles GET /room/{roomId}/status.
func (h *RoomHandler) Status(w http.ResponseWriter, r *http.Request) {
	roomID, err := middleware.ParseRoomID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	status, err := h.store.GetRoomStatus(roomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}
