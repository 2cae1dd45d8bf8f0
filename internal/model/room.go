package model

import (
	"sync"
	"time"
)

type RoomStatus string

const (
	RoomStatusSetup          RoomStatus = "setup"
	RoomStatusItemsSubmitted RoomStatus = "items_submitted"
	RoomStatusVoting         RoomStatus = "voting"
	RoomStatusRevealing      RoomStatus = "revealing"
	RoomStatusCompleted      RoomStatus = "completed"
)

// VotingScale is the card deck offered in every round.
var VotingScale = []int{1, 2, 3, 5, 8, 13, 21}

// Identity ties a display name to the network address that joined with it.
// The address is what actually identifies a caller; the name is what the
// room displays.
type Identity struct {
	Name string `json:"name"`
	Addr string `json:"-"`
}

// ItemResult captures one revealed voting round.
type ItemResult struct {
	Item      string            `json:"item" bson:"item"`
	Votes     map[string]string `json:"votes" bson:"votes"`
	Histogram map[string]int    `json:"histogram" bson:"histogram"`
	Average   float64           `json:"average" bson:"average"`
}

// Room is the unit of session state. Mu guards every field below it; the
// store's own lock only guards the id -> room map.
type Room struct {
	ID           int64
	Admin        Identity
	Participants []Identity
	BannedAddrs  map[string]bool
	Items        []string
	ItemHistory  []ItemResult
	Votes        map[string]string
	Status       RoomStatus
	CreatedAt    time.Time

	Mu sync.Mutex
}

// ParticipantInfo is the wire shape for one room member.
type ParticipantInfo struct {
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

// RoomState is the snapshot handed to a joining client.
type RoomState struct {
	Status      RoomStatus `json:"status"`
	CurrentItem *string    `json:"currentItem"`
}

// JoinResult is what the store reports back for a join attempt.
type JoinResult struct {
	IsAdmin bool
	Name    string
	Rejoin  bool
	State   RoomState
}

// RoomStatusInfo is the poll-style status blob.
type RoomStatusInfo struct {
	Status         RoomStatus `json:"status"`
	CurrentItem    *string    `json:"currentItem"`
	RemainingItems int        `json:"remainingItems"`
	VoteCount      int        `json:"voteCount"`
	TotalPlayers   int        `json:"totalPlayers"`
	CompletedItems int        `json:"completedItems"`
}

// VoteStatus reports round progress, for push updates and poll fallback alike.
type VoteStatus struct {
	VoteCount    int               `json:"voteCount"`
	TotalPlayers int               `json:"totalPlayers"`
	VotedPlayers []string          `json:"votedPlayers"`
	AllPlayers   []ParticipantInfo `json:"allPlayers"`
}

// Members lists the admin first, then participants in join order.
// Caller must hold r.Mu.
func (r *Room) Members() []ParticipantInfo {
	members := make([]ParticipantInfo, 0, len(r.Participants)+1)
	members = append(members, ParticipantInfo{Name: r.Admin.Name, IsAdmin: true})
	for _, p := range r.Participants {
		members = append(members, ParticipantInfo{Name: p.Name})
	}
	return members
}

// CurrentItem returns items[0], or nil when the backlog is empty.
// Caller must hold r.Mu.
func (r *Room) CurrentItem() *string {
	if len(r.Items) == 0 {
		return nil
	}
	item := r.Items[0]
	return &item
}
