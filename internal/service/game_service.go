package service

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/okso-hub/scrum-poker-sub000/internal/model"
	"github.com/okso-hub/scrum-poker-sub000/internal/store"
)

// GameService drives the per-room voting round state machine:
//
//	setup -> items_submitted -> voting <-> revealing -> completed
//
// Every operation returns the event payload describing the state change;
// callers are responsible for broadcasting it.
type GameService struct {
	store *store.RoomStore
}

func NewGameService(roomStore *store.RoomStore) *GameService {
	return &GameService{store: roomStore}
}

// StartVoting opens the first round.
func (s *GameService) StartVoting(roomID int64) (*model.RevealItemEvent, error) {
	room, err := s.store.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if len(room.Items) == 0 {
		return nil, model.ErrBadRequest("No items to vote on")
	}

	room.Votes = make(map[string]string)
	room.Status = model.RoomStatusVoting
	return revealItemEvent(room), nil
}

// Vote records (or overwrites) a player's vote for the current round. Any
// non-empty string is accepted; the tally step decides what is numeric.
func (s *GameService) Vote(roomID int64, playerName, vote string) (*model.VoteStatusEvent, error) {
	if playerName == "" || vote == "" {
		return nil, model.ErrBadRequest("Player name and vote are required")
	}

	room, err := s.store.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if err := s.store.ValidatePlayerInRoom(room, playerName); err != nil {
		return nil, err
	}

	room.Votes[playerName] = vote
	return &model.VoteStatusEvent{
		Event:      model.EventVoteStatusUpdate,
		VoteStatus: voteStatus(room),
	}, nil
}

// IsVoteComplete is true once every member, admin included, has voted.
func (s *GameService) IsVoteComplete(roomID int64) (bool, error) {
	room, err := s.store.GetRoom(roomID)
	if err != nil {
		return false, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()
	return len(room.Votes) == len(room.Participants)+1, nil
}

// RevealVotes tallies the current round, appends it to history and moves the
// room to revealing.
func (s *GameService) RevealVotes(roomID int64) (*model.CardsRevealedEvent, error) {
	room, err := s.store.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Status != model.RoomStatusVoting {
		return nil, model.ErrBadRequest("No round in progress")
	}
	if len(room.Votes) == 0 {
		return nil, model.ErrBadRequest("No votes to reveal")
	}

	result := tallyVotes(room.Votes)

	var item string
	if len(room.Items) > 0 {
		item = room.Items[0]
		room.ItemHistory = append(room.ItemHistory, model.ItemResult{
			Item:      item,
			Votes:     result.Votes,
			Histogram: result.Histogram,
			Average:   result.Average,
		})
	}

	room.Status = model.RoomStatusRevealing
	return &model.CardsRevealedEvent{
		Event:      model.EventCardsRevealed,
		Item:       item,
		VoteResult: result,
		IsLastItem: len(room.Items) <= 1,
	}, nil
}

// RepeatVoting reruns the round for the current item. The item's previous
// history entry is purged so history never holds a stale duplicate.
func (s *GameService) RepeatVoting(roomID int64) (*model.RevealItemEvent, error) {
	room, err := s.store.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if len(room.Items) == 0 {
		return nil, model.ErrBadRequest("No item to repeat")
	}

	current := room.Items[0]
	for i, entry := range room.ItemHistory {
		if entry.Item == current {
			room.ItemHistory = append(room.ItemHistory[:i], room.ItemHistory[i+1:]...)
			break
		}
	}

	room.Votes = make(map[string]string)
	room.Status = model.RoomStatusVoting
	return revealItemEvent(room), nil
}

// NextItem advances to the next backlog entry and opens its round.
func (s *GameService) NextItem(roomID int64) (*model.RevealItemEvent, error) {
	room, err := s.store.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if len(room.Items) < 2 {
		return nil, model.ErrBadRequest("No more items")
	}

	room.Items = room.Items[1:]
	room.Votes = make(map[string]string)
	room.Status = model.RoomStatusVoting
	return revealItemEvent(room), nil
}

// ShowSummary closes the session: mean of all round averages, full history.
func (s *GameService) ShowSummary(roomID int64) (*model.ShowSummaryEvent, error) {
	room, err := s.store.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	var total float64
	if len(room.ItemHistory) > 0 {
		for _, entry := range room.ItemHistory {
			total += entry.Average
		}
		total = round2(total / float64(len(room.ItemHistory)))
	}

	room.Status = model.RoomStatusCompleted
	return &model.ShowSummaryEvent{
		Event:        model.EventShowSummary,
		History:      append([]model.ItemResult(nil), room.ItemHistory...),
		TotalAverage: total,
		TotalTasks:   len(room.ItemHistory),
	}, nil
}

// GetVoteStatus is the poll fallback for clients without a live socket.
func (s *GameService) GetVoteStatus(roomID int64) (*model.VoteStatus, error) {
	room, err := s.store.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	status := voteStatus(room)
	return &status, nil
}

// SummaryOf converts a summary event into its archival form.
func SummaryOf(roomID int64, adminName string, event *model.ShowSummaryEvent) *model.SessionSummary {
	return &model.SessionSummary{
		RoomID:       roomID,
		AdminName:    adminName,
		History:      event.History,
		TotalAverage: event.TotalAverage,
		TotalTasks:   event.TotalTasks,
		CompletedAt:  time.Now(),
	}
}

// revealItemEvent builds the round-start payload. Caller must hold room.Mu
// and guarantee at least one item.
func revealItemEvent(room *model.Room) *model.RevealItemEvent {
	return &model.RevealItemEvent{
		Event:        model.EventRevealItem,
		Item:         room.Items[0],
		Scale:        model.VotingScale,
		TotalPlayers: len(room.Participants) + 1,
		Players:      room.Members(),
	}
}

// voteStatus snapshots round progress. Caller must hold room.Mu.
func voteStatus(room *model.Room) model.VoteStatus {
	voted := make([]string, 0, len(room.Votes))
	for name := range room.Votes {
		voted = append(voted, name)
	}
	sort.Strings(voted)

	return model.VoteStatus{
		VoteCount:    len(room.Votes),
		TotalPlayers: len(room.Participants) + 1,
		VotedPlayers: voted,
		AllPlayers:   room.Members(),
	}
}

// tallyVotes builds the histogram over raw vote strings and averages the
// subset that parses as numbers. Non-numeric votes (a "?" card) stay in the
// histogram and total but never skew the average.
func tallyVotes(votes map[string]string) model.VoteResult {
	histogram := make(map[string]int, len(votes))
	copied := make(map[string]string, len(votes))
	voters := make([]string, 0, len(votes))

	var sum float64
	var numeric int
	for name, vote := range votes {
		copied[name] = vote
		histogram[vote]++
		voters = append(voters, name)
		if v, err := strconv.ParseFloat(vote, 64); err == nil {
			sum += v
			numeric++
		}
	}
	sort.Strings(voters)

	var average float64
	if numeric > 0 {
		average = round2(sum / float64(numeric))
	}

	return model.VoteResult{
		Votes:      copied,
		Histogram:  histogram,
		Average:    average,
		TotalVotes: len(votes),
		Voters:     voters,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
