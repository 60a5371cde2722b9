package game

import (
	rand "math/rand/v2"
	"time"

	"github.com/lox/tycoon/internal/deck"
)

// StartRound shuffles a fresh deck and deals it out, moving the table to
// Shuffling. It returns the id of the player who will open once play
// begins. The dealer is the previous round's loser, or the first seat.
func StartRound(s *GameState, rng *rand.Rand, minPlayers int) (*GameState, string, error) {
	if s.Status != StatusLobby && s.Status != StatusGameOver {
		return nil, "", ErrRoundInProgress
	}
	if len(s.Players) < minPlayers {
		return nil, "", ErrNotEnoughPlayers
	}

	n := len(s.Players)
	dealer := 0
	if seat := s.Seat(s.LastLoserID); seat >= 0 {
		dealer = seat
	}

	hands := make([][]deck.Card, n)
	first := wrap(dealer+Direction, n)
	seat := first
	for _, card := range deck.New(rng) {
		hands[seat] = append(hands[seat], card)
		seat = wrap(seat+Direction, n)
	}

	next := s.Clone()
	for i := range next.Players {
		deck.Sort(hands[i])
		next.Players[i].resetForRound(hands[i])
	}
	next.Round++
	next.Status = StatusShuffling
	next.Pile = nil
	next.Winners = []string{}
	next.CurrentPlayerID = ""
	next.TurnDeadline = time.Time{}

	return next, next.Players[first].ID, nil
}

// BeginDealing moves a shuffling table to Dealing.
func BeginDealing(s *GameState) (*GameState, error) {
	if s.Status != StatusShuffling {
		return nil, ErrWrongStatus
	}
	next := s.Clone()
	next.Status = StatusDealing
	return next, nil
}

// BeginPlay opens play with openerID to act. If the opener left during the
// deal animation, the first seat opens instead.
func BeginPlay(s *GameState, openerID string, deadline time.Time) (*GameState, error) {
	if s.Status != StatusDealing {
		return nil, ErrWrongStatus
	}
	next := s.Clone()
	if p := next.Player(openerID); p == nil || p.IsFinished {
		openerID = ""
		if len(next.Players) > 0 {
			openerID = next.Players[0].ID
		}
	}
	next.Status = StatusPlaying
	next.CurrentPlayerID = openerID
	next.TurnDeadline = deadline
	return next, nil
}

// ReturnToLobby reopens a finished table for seating. Hands and ranks are
// cleared; the roster and the last loser are kept.
func ReturnToLobby(s *GameState) (*GameState, error) {
	if s.Status != StatusGameOver {
		return nil, ErrWrongStatus
	}
	next := s.Clone()
	for i := range next.Players {
		next.Players[i].resetForRound(nil)
	}
	next.Status = StatusLobby
	next.Pile = nil
	next.Winners = []string{}
	next.CurrentPlayerID = ""
	next.TurnDeadline = time.Time{}
	return next, nil
}

// settle ends the round once at most one player still holds cards. The
// remaining player, if any, is the loser; if the last two went out on the
// same action the actor is recorded instead.
func settle(s *GameState, actorID string) {
	if s.Status != StatusPlaying {
		return
	}
	if s.ActiveCount() > 1 {
		return
	}
	loser := actorID
	for _, p := range s.Players {
		if !p.IsFinished {
			loser = p.ID
			break
		}
	}
	if loser != "" {
		s.LastLoserID = loser
	}
	endRound(s)
}

func endRound(s *GameState) {
	s.Status = StatusGameOver
	s.CurrentPlayerID = ""
	s.TurnDeadline = time.Time{}
}
