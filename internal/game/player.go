package game

import "github.com/lox/tycoon/internal/deck"

// Action tags a player's most recent move for display
type Action string

const (
	ActionNone Action = ""
	ActionPlay Action = "PLAY"
	ActionPass Action = "PASS"
)

// Player is a seat at the table
type Player struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	IsHost     bool        `json:"isHost"`
	IsBot      bool        `json:"isBot,omitempty"`
	Hand       []deck.Card `json:"hand,omitempty"`
	HandCount  int         `json:"handCount"`
	IsFinished bool        `json:"isFinished"`
	Rank       *int        `json:"rank"` // finishing position, 1-based
	LastAction Action      `json:"lastAction,omitempty"`
}

// clone returns a copy that shares no memory with p
func (p Player) clone() Player {
	out := p
	if p.Hand != nil {
		out.Hand = append([]deck.Card(nil), p.Hand...)
	}
	if p.Rank != nil {
		r := *p.Rank
		out.Rank = &r
	}
	return out
}

// resetForRound clears everything a previous round left on the seat
func (p *Player) resetForRound(hand []deck.Card) {
	p.Hand = hand
	p.HandCount = len(hand)
	p.IsFinished = false
	p.Rank = nil
	p.LastAction = ActionNone
}

// finish takes the player out of the rotation with the given position
func (p *Player) finish(position int) {
	p.IsFinished = true
	p.Rank = &position
}

// Cards looks up ids in the player's hand, rejecting ids that are not held
// or that repeat.
func (p *Player) Cards(ids []string) ([]deck.Card, error) {
	return resolveCards(p.Hand, ids)
}

// HasCard reports whether the player holds the card with id
func (p *Player) HasCard(id string) bool {
	for _, c := range p.Hand {
		if c.ID == id {
			return true
		}
	}
	return false
}
