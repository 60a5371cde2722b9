package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/lox/tycoon/internal/rules"
)

// Status is the stage of the table
type Status string

const (
	StatusLobby     Status = "LOBBY"
	StatusShuffling Status = "SHUFFLING"
	StatusDealing   Status = "DEALING"
	StatusPlaying   Status = "PLAYING"
	StatusGameOver  Status = "GAME_OVER"
)

// InRound reports whether a round is underway, animation stages included
func (s Status) InRound() bool {
	return s == StatusShuffling || s == StatusDealing || s == StatusPlaying
}

// Pile is the combination currently on the table
type Pile = rules.Pile

// Table limits
const (
	MaxPlayers = 6
	MinPlayers = 2
)

// Errors returned for requests that are dropped without a state change.
var (
	ErrUnknownPlayer    = errors.New("player not at table")
	ErrNotPlaying       = errors.New("round is not in play")
	ErrNotYourTurn      = errors.New("not the player's turn")
	ErrCardNotHeld      = errors.New("card not in player's hand")
	ErrDuplicateCard    = errors.New("card submitted twice")
	ErrIllegalMove      = errors.New("illegal move")
	ErrRosterLocked     = errors.New("roster can only change in the lobby")
	ErrRosterFull       = errors.New("table is full")
	ErrAlreadySeated    = errors.New("player already seated")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrRoundInProgress  = errors.New("round already in progress")
	ErrWrongStatus      = errors.New("transition not allowed from current status")
)

// GameState is a complete snapshot of the table. The host owns the only
// authoritative copy; everyone else holds the latest snapshot it sent.
type GameState struct {
	Version         uint64    `json:"version"`
	Round           int       `json:"round"`
	Players         []Player  `json:"players"`
	CurrentPlayerID string    `json:"currentPlayerId,omitempty"`
	LastLoserID     string    `json:"lastLoserId,omitempty"`
	Pile            *Pile     `json:"pile"`
	Status          Status    `json:"status"`
	Winners         []string  `json:"winners"`
	TurnDeadline    time.Time `json:"turnDeadline,omitzero"`
}

// New returns an empty lobby
func New() *GameState {
	return &GameState{
		Players: []Player{},
		Status:  StatusLobby,
		Winners: []string{},
	}
}

// Clone returns a deep copy of the snapshot
func (s *GameState) Clone() *GameState {
	out := *s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		out.Players[i] = p.clone()
	}
	out.Pile = s.Pile.Clone()
	out.Winners = append([]string{}, s.Winners...)
	return &out
}

// Seat returns the seat index of the player with id, or -1
func (s *GameState) Seat(id string) int {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// Player returns the player with id, or nil
func (s *GameState) Player(id string) *Player {
	if i := s.Seat(id); i >= 0 {
		return &s.Players[i]
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is, or nil
func (s *GameState) CurrentPlayer() *Player {
	if s.CurrentPlayerID == "" {
		return nil
	}
	return s.Player(s.CurrentPlayerID)
}

// ActiveCount returns the number of players still holding cards this round
func (s *GameState) ActiveCount() int {
	n := 0
	for _, p := range s.Players {
		if !p.IsFinished {
			n++
		}
	}
	return n
}

// TotalCards returns the sum of hand counts across the table
func (s *GameState) TotalCards() int {
	total := 0
	for _, p := range s.Players {
		total += p.HandCount
	}
	return total
}

// ViewFor returns the snapshot as the participant viewerID may see it:
// their own hand intact, everyone else reduced to a card count.
func (s *GameState) ViewFor(viewerID string) *GameState {
	out := s.Clone()
	for i := range out.Players {
		if out.Players[i].ID != viewerID {
			out.Players[i].Hand = nil
		}
	}
	return out
}

// Check verifies the invariants every snapshot must hold. It is used by
// tests and the simulator; the transitions never produce a failing state.
func (s *GameState) Check() error {
	seenPlayers := make(map[string]bool, len(s.Players))
	seenCards := make(map[string]string)
	for _, p := range s.Players {
		if seenPlayers[p.ID] {
			return fmt.Errorf("duplicate player %s", p.ID)
		}
		seenPlayers[p.ID] = true

		if p.Hand != nil && len(p.Hand) != p.HandCount {
			return fmt.Errorf("player %s: hand has %d cards, count says %d", p.ID, len(p.Hand), p.HandCount)
		}
		if p.IsFinished != (p.Rank != nil) {
			return fmt.Errorf("player %s: finished=%v but rank set=%v", p.ID, p.IsFinished, p.Rank != nil)
		}
		for _, c := range p.Hand {
			if owner, ok := seenCards[c.ID]; ok {
				return fmt.Errorf("card %s held by both %s and %s", c.ID, owner, p.ID)
			}
			seenCards[c.ID] = p.ID
		}
	}

	if s.Status == StatusPlaying {
		cur := s.CurrentPlayer()
		if cur == nil {
			return fmt.Errorf("playing with no current player")
		}
		if cur.IsFinished {
			return fmt.Errorf("current player %s has finished", cur.ID)
		}
	}
	return nil
}
