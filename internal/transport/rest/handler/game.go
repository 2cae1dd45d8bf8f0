package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/okso-hub/scrum-poker-sub000/internal/model"
	"github.com/okso-hub/scrum-poker-sub000/internal/service"
	"github.com/okso-hub/scrum-poker-sub000/internal/store"
	"github.com/okso-hub/scrum-poker-sub000/internal/transport/rest/middleware"
)

// GameHandler covers the voting round endpoints. Every mutation broadcasts
// its event before the HTTP response is written, so room members never lag
// behind the caller's acknowledgment.
type GameHandler struct {
	store         *store.RoomStore
	gameSvc       *service.GameService
	archiveSvc    *service.ArchiveService
	broadcaster   service.Broadcaster
	teardownDelay time.Duration
}

func NewGameHandler(
	roomStore *store.RoomStore,
	gameSvc *service.GameService,
	archiveSvc *service.ArchiveService,
	broadcaster service.Broadcaster,
	teardownDelay time.Duration,
) *GameHandler {
	return &GameHandler{
		store:         roomStore,
		gameSvc:       gameSvc,
		archiveSvc:    archiveSvc,
		broadcaster:   broadcaster,
		teardownDelay: teardownDelay,
	}
}

// Start handles POST /room/{roomId}/start (admin only).
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	roomID := middleware.RoomID(r.Context())

	event, err := h.gameSvc.StartVoting(roomID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcaster.Broadcast(roomID, event)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// VoteRequest is the request body for casting a vote.
type VoteRequest struct {
	Vote       string `json:"vote"`
	PlayerName string `json:"playerName"`
}

// Vote handles POST /room/{roomId}/vote. When this vote completes the round,
// the reveal fires automatically and its event rides along in the response.
func (h *GameHandler) Vote(w http.ResponseWriter, r *http.Request) {
	roomID, err := middleware.ParseRoomID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrBadRequest("Invalid request body"))
		return
	}

	event, err := h.gameSvc.Vote(roomID, req.PlayerName, req.Vote)
	if err != nil {
		writeError(w, err)
		return
	}
	h.broadcaster.Broadcast(roomID, event)

	resp := map[string]interface{}{"success": true}
	if complete, err := h.gameSvc.IsVoteComplete(roomID); err == nil && complete {
		revealEvent, err := h.gameSvc.RevealVotes(roomID)
		if err == nil {
			h.broadcaster.Broadcast(roomID, revealEvent)
			resp["gameEvent"] = revealEvent
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// VoteStatus handles GET /room/{roomId}/vote-status, the poll fallback.
func (h *GameHandler) VoteStatus(w http.ResponseWriter, r *http.Request) {
	roomID, err := middleware.ParseRoomID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	status, err := h.gameSvc.GetVoteStatus(roomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Reveal handles POST /room/{roomId}/reveal (admin only).
func (h *GameHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	roomID := middleware.RoomID(r.Context())

	event, err := h.gameSvc.RevealVotes(roomID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcaster.Broadcast(roomID, event)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "gameEvent": event})
}

// Repeat handles POST /room/{roomId}/repeat (admin only).
func (h *GameHandler) Repeat(w http.ResponseWriter, r *http.Request) {
	roomID := middleware.RoomID(r.Context())

	event, err := h.gameSvc.RepeatVoting(roomID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcaster.Broadcast(roomID, event)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "item": event.Item})
}

// Next handles POST /room/{roomId}/next (admin only).
func (h *GameHandler) Next(w http.ResponseWriter, r *http.Request) {
	roomID := middleware.RoomID(r.Context())

	event, err := h.gameSvc.NextItem(roomID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcaster.Broadcast(roomID, event)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "item": event.Item})
}

// Summary handles POST /room/{roomId}/summary (admin only). The room is
// archived and scheduled for teardown after a grace delay, so slow clients
// still receive the final broadcast.
func (h *GameHandler) Summary(w http.ResponseWriter, r *http.Request) {
	roomID := middleware.RoomID(r.Context())

	event, err := h.gameSvc.ShowSummary(roomID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.broadcaster.Broadcast(roomID, event)

	if room, err := h.store.GetRoom(roomID); err == nil {
		room.Mu.Lock()
		adminName := room.Admin.Name
		room.Mu.Unlock()
		h.archiveSvc.Archive(r.Context(), service.SummaryOf(roomID, adminName, event))
	}

	h.store.ScheduleDelete(roomID, h.teardownDelay)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "gameEvent": event})
}

// BanRequest is the request body for banning a participant.
type BanRequest struct {
	Name string `json:"name"`
}

// Ban handles POST /room/{roomId}/ban (admin only). The banned user's socket
// is torn down immediately instead of waiting for a future failed request.
func (h *GameHandler) Ban(w http.ResponseWriter, r *http.Request) {
	roomID := middleware.RoomID(r.Context())

	var req BanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrBadRequest("Invalid request body"))
		return
	}

	banned, err := h.store.BanUser(roomID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcaster.DisconnectUser(roomID, banned.Name)
	if players, err := h.store.GetParticipants(roomID); err == nil {
		h.broadcaster.Broadcast(roomID, model.UserBannedEvent{
			Event:   model.EventUserBanned,
			Name:    banned.Name,
			Players: players,
		})
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetSummary handles GET /summaries/{roomId}: the archived report of a
// session whose room is already gone.
func (h *GameHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	roomID, err := middleware.ParseRoomID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.archiveSvc.Get(r.Context(), roomID)
	if err != nil {
		writeError(w, err)
		return
	}
	if summary == nil {
		writeError(w, model.ErrNotFound("Summary not found"))
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
