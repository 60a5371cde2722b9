package game

import (
	"slices"
	"time"
)

// Join seats a new player at the end of the roster. Seats can only be taken
// in the lobby, and never beyond maxPlayers.
func Join(s *GameState, p Player, maxPlayers int) (*GameState, error) {
	if s.Status != StatusLobby {
		return nil, ErrRosterLocked
	}
	if s.Seat(p.ID) >= 0 {
		return nil, ErrAlreadySeated
	}
	if len(s.Players) >= maxPlayers {
		return nil, ErrRosterFull
	}

	next := s.Clone()
	p.resetForRound(nil)
	next.Players = append(next.Players, p)
	return next, nil
}

// Leave removes a player from the table. Outside a round this is a plain
// roster edit. During a round the turn passes to whoever follows the empty
// seat and the round ends if it can no longer continue. A pile owned by a
// leaver still holding cards is cleared; one owned by a leaver who already
// went out stays until the turn reaches the player who followed them.
func Leave(s *GameState, id string, deadline time.Time) (*GameState, error) {
	seat := s.Seat(id)
	if seat < 0 {
		return nil, ErrUnknownPlayer
	}

	next := s.Clone()
	next.Players = slices.Delete(next.Players, seat, seat+1)

	if !next.Status.InRound() {
		return next, nil
	}

	if pile := next.Pile; pile != nil {
		switch {
		case pile.PlayerID == id && s.Players[seat].IsFinished:
			pile.CloserID = NextActivePlayer(s.Players, id, Direction)
		case pile.PlayerID == id:
			next.Pile = nil
		case pile.CloserID == id:
			pile.CloserID = nextActiveAfterVacated(next.Players, seat, Direction)
		}
	}

	if next.CurrentPlayerID == id {
		next.CurrentPlayerID = nextActiveAfterVacated(next.Players, seat, Direction)
		if next.Status == StatusPlaying {
			next.TurnDeadline = deadline
		}
	}

	if len(next.Players) < MinPlayers {
		endRound(next)
		return next, nil
	}

	settle(next, "")
	return next, nil
}
