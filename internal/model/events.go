package model

// WebSocket event names. Every server push is a flat JSON object whose
// "event" field carries one of these.
const (
	EventUserJoined       = "user-joined"
	EventUserBanned       = "user-banned"
	EventRevealItem       = "reveal-item"
	EventVoteStatusUpdate = "vote-status-update"
	EventCardsRevealed    = "cards-revealed"
	EventShowSummary      = "show-summary"
	EventBannedByAdmin    = "banned-by-admin"
)

// UserJoinedEvent announces a new or returning member.
type UserJoinedEvent struct {
	Event   string            `json:"event"`
	Name    string            `json:"name"`
	Rejoin  bool              `json:"rejoin"`
	Players []ParticipantInfo `json:"players"`
}

// UserBannedEvent announces a removed member to the rest of the room.
type UserBannedEvent struct {
	Event   string            `json:"event"`
	Name    string            `json:"name"`
	Players []ParticipantInfo `json:"players"`
}

// RevealItemEvent starts (or restarts) a voting round.
type RevealItemEvent struct {
	Event        string            `json:"event"`
	Item         string            `json:"item"`
	Scale        []int             `json:"scale"`
	TotalPlayers int               `json:"totalPlayers"`
	Players      []ParticipantInfo `json:"players"`
}

// VoteStatusEvent pushes round progress after each recorded vote.
type VoteStatusEvent struct {
	Event string `json:"event"`
	VoteStatus
}

// VoteResult is the tally of one round.
type VoteResult struct {
	Votes      map[string]string `json:"votes"`
	Histogram  map[string]int    `json:"histogram"`
	Average    float64           `json:"average"`
	TotalVotes int               `json:"totalVotes"`
	Voters     []string          `json:"voters"`
}

// CardsRevealedEvent carries the tally of the current round.
type CardsRevealedEvent struct {
	Event string `json:"event"`
	Item  string `json:"item"`
	VoteResult
	IsLastItem bool `json:"isLastItem"`
}

// ShowSummaryEvent ends the session with the full history.
type ShowSummaryEvent struct {
	Event        string       `json:"event"`
	History      []ItemResult `json:"history"`
	TotalAverage float64      `json:"totalAverage"`
	TotalTasks   int          `json:"totalTasks"`
}

// BannedByAdminEvent is the terminal notice sent to a banned client right
// before its connection is closed.
type BannedByAdminEvent struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
