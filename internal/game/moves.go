package game

import (
	"fmt"
	"time"

	"github.com/lox/tycoon/internal/deck"
	"github.com/lox/tycoon/internal/rules"
)

// checkTurn confirms a request comes from the player whose turn it is
func checkTurn(s *GameState, playerID string) (int, error) {
	if s.Status != StatusPlaying {
		return -1, ErrNotPlaying
	}
	seat := s.Seat(playerID)
	if seat < 0 {
		return -1, ErrUnknownPlayer
	}
	if s.CurrentPlayerID != playerID {
		return -1, ErrNotYourTurn
	}
	return seat, nil
}

// resolveCards looks up cardIDs in hand, rejecting unknown or repeated ids
func resolveCards(hand []deck.Card, cardIDs []string) ([]deck.Card, error) {
	byID := make(map[string]deck.Card, len(hand))
	for _, c := range hand {
		byID[c.ID] = c
	}
	seen := make(map[string]bool, len(cardIDs))
	cards := make([]deck.Card, 0, len(cardIDs))
	for _, id := range cardIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCard, id)
		}
		seen[id] = true
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCardNotHeld, id)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// ApplyPlay plays the cards with cardIDs from playerID's hand. The verdict
// is returned whenever the cards could be resolved, so callers can report
// why a move was refused. On any error the returned state is nil.
func ApplyPlay(s *GameState, playerID string, cardIDs []string, deadline time.Time) (*GameState, rules.Verdict, error) {
	seat, err := checkTurn(s, playerID)
	if err != nil {
		return nil, rules.Verdict{}, err
	}

	cards, err := resolveCards(s.Players[seat].Hand, cardIDs)
	if err != nil {
		return nil, rules.Verdict{}, err
	}

	verdict := rules.Validate(cards, s.Pile, len(s.Players[seat].Hand))
	if !verdict.Valid {
		return nil, verdict, fmt.Errorf("%w: %w", ErrIllegalMove, verdict.Err)
	}

	next := s.Clone()
	p := &next.Players[seat]
	played := make(map[string]bool, len(cards))
	for _, c := range cards {
		played[c.ID] = true
	}
	remaining := make([]deck.Card, 0, len(p.Hand)-len(cards))
	for _, c := range p.Hand {
		if !played[c.ID] {
			remaining = append(remaining, c)
		}
	}
	p.Hand = remaining
	p.HandCount = len(remaining)
	p.LastAction = ActionPlay

	finished := len(remaining) == 0
	if finished {
		p.finish(len(next.Winners) + 1)
		next.Winners = append(next.Winners, playerID)
	}

	if verdict.IsReset {
		// A reset clears the table and the player leads again, unless
		// they went out with it.
		next.Pile = nil
		if finished {
			next.CurrentPlayerID = NextActivePlayer(next.Players, playerID, Direction)
		}
	} else {
		next.Pile = &Pile{
			Cards:    deck.Sorted(cards),
			Type:     verdict.Type,
			PlayerID: playerID,
		}
		next.CurrentPlayerID = NextActivePlayer(next.Players, playerID, Direction)
	}
	next.TurnDeadline = deadline

	settle(next, playerID)
	return next, verdict, nil
}

// ApplyPass passes playerID's turn. When the turn comes back round to the
// pile's owner, everyone else has passed and the pile is cleared. If the
// owner has gone out, the pile clears when the turn reaches the player who
// would have followed the owner, even if the owner has since left.
func ApplyPass(s *GameState, playerID string, deadline time.Time) (*GameState, error) {
	seat, err := checkTurn(s, playerID)
	if err != nil {
		return nil, err
	}

	next := s.Clone()
	next.Players[seat].LastAction = ActionPass
	nextID := NextActivePlayer(next.Players, playerID, Direction)

	if next.Pile != nil {
		owner := next.Pile.PlayerID
		switch {
		case nextID == owner:
			next.Pile = nil
		case ownerFinished(next, owner) && nextID == NextActivePlayer(next.Players, owner, Direction):
			next.Pile = nil
		case next.Pile.CloserID != "" && nextID == next.Pile.CloserID:
			next.Pile = nil
		}
	}

	next.CurrentPlayerID = nextID
	next.TurnDeadline = deadline
	settle(next, "")
	return next, nil
}

func ownerFinished(s *GameState, id string) bool {
	p := s.Player(id)
	return p != nil && p.IsFinished
}
