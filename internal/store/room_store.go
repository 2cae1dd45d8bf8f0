package store

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okso-hub/scrum-poker-sub000/internal/model"
)

const (
	maxItemLength = 100
	// Characters that would allow markup injection once items are rendered.
	forbiddenItemChars = "<>&"
)

// RoomStore is the single source of truth for live rooms. State is
// memory-resident and intentionally ephemeral; nothing survives a restart.
type RoomStore struct {
	mu     sync.RWMutex
	rooms  map[int64]*model.Room
	timers map[int64]*time.Timer
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms:  make(map[int64]*model.Room),
		timers: make(map[int64]*time.Timer),
	}
}

// CreateRoom registers a new room with the caller as admin and returns its id.
func (s *RoomStore) CreateRoom(adminName, adminAddr string) (int64, error) {
	if adminName == "" {
		return 0, model.ErrBadRequest("Name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.generateRoomID()
	if err != nil {
		return 0, fmt.Errorf("failed to generate room id: %w", err)
	}

	s.rooms[id] = &model.Room{
		ID:           id,
		Admin:        model.Identity{Name: adminName, Addr: adminAddr},
		Participants: make([]model.Identity, 0),
		BannedAddrs:  make(map[string]bool),
		Items:        make([]string, 0),
		ItemHistory:  make([]model.ItemResult, 0),
		Votes:        make(map[string]string),
		Status:       model.RoomStatusSetup,
		CreatedAt:    time.Now(),
	}
	return id, nil
}

// generateRoomID draws six-digit ids until one doesn't collide with a live
// room. Caller must hold s.mu.
func (s *RoomStore) generateRoomID() (int64, error) {
	for {
		var b [8]byte
		if _, err := rand.Read(b[:]); err != nil {
			return 0, err
		}
		id := int64(binary.BigEndian.Uint64(b[:])%900000) + 100000
		if _, exists := s.rooms[id]; !exists {
			return id, nil
		}
	}
}

// GetRoom looks up a live room. Mutating callers must take room.Mu themselves.
func (s *RoomStore) GetRoom(roomID int64) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, model.ErrNotFound("Room not found")
	}
	return room, nil
}

// IsAdmin reports whether addr created the room. A missing room is simply
// not-admin, never an error.
func (s *RoomStore) IsAdmin(roomID int64, addr string) bool {
	room, err := s.GetRoom(roomID)
	if err != nil {
		return false
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()
	return room.Admin.Addr == addr
}

// JoinRoom admits (or re-admits) a caller. The joining address, not the
// supplied name, decides whether this is a rejoin.
func (s *RoomStore) JoinRoom(roomID int64, name, addr string) (*model.JoinResult, error) {
	if name == "" {
		return nil, model.ErrBadRequest("Name is required")
	}

	room, err := s.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.BannedAddrs[addr] {
		return nil, model.ErrForbidden("You are banned from this room")
	}

	state := model.RoomState{Status: room.Status, CurrentItem: room.CurrentItem()}

	// Admin coming back: keep the original name regardless of what was sent.
	if addr == room.Admin.Addr {
		return &model.JoinResult{IsAdmin: true, Name: room.Admin.Name, Rejoin: true, State: state}, nil
	}

	for i := range room.Participants {
		if room.Participants[i].Addr != addr {
			continue
		}
		// Rejoin from a known address. A different name is a rename in
		// place, as long as nobody else holds it.
		if room.Participants[i].Name != name {
			if nameTaken(room, name) {
				return nil, model.ErrBadRequest("Username already taken")
			}
			room.Participants[i].Name = name
		}
		return &model.JoinResult{Name: room.Participants[i].Name, Rejoin: true, State: state}, nil
	}

	if nameTaken(room, name) {
		return nil, model.ErrBadRequest("Username already taken")
	}

	room.Participants = append(room.Participants, model.Identity{Name: name, Addr: addr})
	return &model.JoinResult{Name: name, State: state}, nil
}

// nameTaken reports whether name already belongs to the admin or any
// participant. Comparison is case-sensitive. Caller must hold room.Mu.
func nameTaken(room *model.Room, name string) bool {
	if room.Admin.Name == name {
		return true
	}
	for _, p := range room.Participants {
		if p.Name == name {
			return true
		}
	}
	return false
}

// GetParticipants lists the admin first, then participants in join order.
func (s *RoomStore) GetParticipants(roomID int64) ([]model.ParticipantInfo, error) {
	room, err := s.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()
	return room.Members(), nil
}

// ValidatePlayerInRoom guards vote recording: only current members may vote.
// Caller must hold room.Mu.
func (s *RoomStore) ValidatePlayerInRoom(room *model.Room, name string) error {
	if room.Admin.Name == name {
		return nil
	}
	for _, p := range room.Participants {
		if p.Name == name {
			return nil
		}
	}
	return model.ErrForbidden("Player is not in this room")
}

// BanUser records the participant's address as banned and removes them from
// the room. The admin can never be banned.
func (s *RoomStore) BanUser(roomID int64, name string) (*model.Identity, error) {
	if name == "" {
		return nil, model.ErrBadRequest("Name is required")
	}

	room, err := s.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if name == room.Admin.Name {
		return nil, model.ErrBadRequest("Admin cannot be banned")
	}

	for i, p := range room.Participants {
		if p.Name != name {
			continue
		}
		banned := p
		room.BannedAddrs[p.Addr] = true
		room.Participants = append(room.Participants[:i], room.Participants[i+1:]...)
		// Votes may only hold current members; drop any vote the banned
		// player already cast this round.
		delete(room.Votes, p.Name)
		return &banned, nil
	}
	return nil, model.ErrNotFound("Player not found in room")
}

// SetItems replaces the backlog wholesale. Item text is validated before
// anything is touched, so a rejected batch leaves prior items unchanged.
func (s *RoomStore) SetItems(roomID int64, items []string) error {
	for _, item := range items {
		if err := validateItemText(item); err != nil {
			return err
		}
	}

	room, err := s.GetRoom(roomID)
	if err != nil {
		return err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	room.Items = append([]string(nil), items...)
	room.Status = model.RoomStatusItemsSubmitted
	return nil
}

func validateItemText(item string) error {
	if len(item) > maxItemLength {
		return model.ErrBadRequest("Item text exceeds 100 characters")
	}
	if strings.ContainsAny(item, forbiddenItemChars) {
		return model.ErrBadRequest("Item text contains forbidden characters")
	}
	return nil
}

// GetItems returns a copy of the current backlog.
func (s *RoomStore) GetItems(roomID int64) ([]string, error) {
	room, err := s.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()
	return append([]string(nil), room.Items...), nil
}

// GetRoomStatus returns the poll-style status blob.
func (s *RoomStore) GetRoomStatus(roomID int64) (*model.RoomStatusInfo, error) {
	room, err := s.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	return &model.RoomStatusInfo{
		Status:         room.Status,
		CurrentItem:    room.CurrentItem(),
		RemainingItems: len(room.Items),
		VoteCount:      len(room.Votes),
		TotalPlayers:   len(room.Participants) + 1,
		CompletedItems: len(room.ItemHistory),
	}, nil
}

// DeleteRoom removes a room immediately.
func (s *RoomStore) DeleteRoom(roomID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return model.ErrNotFound("Room not found")
	}
	delete(s.rooms, roomID)
	if t, ok := s.timers[roomID]; ok {
		t.Stop()
		delete(s.timers, roomID)
	}
	return nil
}

// ScheduleDelete tears the room down after delay, giving slow clients time to
// receive the summary broadcast first. A join during the countdown still
// succeeds and does not cancel the timer.
func (s *RoomStore) ScheduleDelete(roomID int64, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return
	}
	s.timers[roomID] = time.AfterFunc(delay, func() {
		s.DeleteRoom(roomID)
	})
}
