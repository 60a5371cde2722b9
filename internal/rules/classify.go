// Package rules decides what a set of cards is and whether it may be played
// onto the table. Everything here is pure: the host runs it to accept or
// drop a request and clients run the same code before sending one.
package rules

import "github.com/lox/tycoon/internal/deck"

// HandType names the shape of a played combination
type HandType string

const (
	Single   HandType = "SINGLE"
	Pair     HandType = "PAIR"
	Triple   HandType = "TRIPLE"   // trail
	Sequence HandType = "SEQUENCE" // run
	Reset    HandType = "RESET"
)

// String returns the wire form of the hand type
func (h HandType) String() string {
	return string(h)
}

// Pile is the combination currently on the table.
type Pile struct {
	Cards    []deck.Card `json:"cards"`
	Type     HandType    `json:"type"`
	PlayerID string      `json:"playerId"`

	// CloserID is set once the owner has gone out and left the table. The
	// pile clears when the turn reaches this player.
	CloserID string `json:"closerId,omitempty"`
}

// Clone returns a deep copy of the pile, or nil for no pile
func (p *Pile) Clone() *Pile {
	if p == nil {
		return nil
	}
	out := *p
	out.Cards = append([]deck.Card(nil), p.Cards...)
	return &out
}

// Classify returns the combination type of cards. The second value is false
// when the cards do not form any combination. Classification is independent
// of card order and knows nothing about the reset rule.
func Classify(cards []deck.Card) (HandType, bool) {
	switch len(cards) {
	case 1:
		return Single, true
	case 2:
		if cards[0].Rank == cards[1].Rank {
			return Pair, true
		}
	case 3:
		sorted := deck.Sorted(cards)
		if deck.AllRank(sorted, sorted[0].Rank) {
			return Triple, true
		}
		if isRun(sorted) {
			return Sequence, true
		}
	}
	return "", false
}

// isRun expects cards sorted ascending
func isRun(sorted []deck.Card) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Suit != sorted[0].Suit {
			return false
		}
		if sorted[i].Rank != sorted[i-1].Rank+1 {
			return false
		}
	}
	return true
}
