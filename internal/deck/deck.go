package deck

import (
	"fmt"
	rand "math/rand/v2"
	"slices"

	"github.com/google/uuid"
)

// Size is the number of cards in a full deck
const Size = 52

// New builds the 52-card deck and returns it shuffled with rng. Every card
// gets an id that is unique across decks, so cards from different rounds
// never compare equal.
func New(rng *rand.Rand) []Card {
	serial := uuid.NewString()[:8]
	cards := make([]Card, 0, Size)
	for rank := Three; rank <= Two; rank++ {
		for _, suit := range Suits {
			cards = append(cards, Card{
				ID:   fmt.Sprintf("%s-%s", Card{Suit: suit, Rank: rank}.Label(), serial),
				Suit: suit,
				Rank: rank,
			})
		}
	}
	Shuffle(cards, rng)
	return cards
}

// Shuffle permutes cards in place with a Fisher-Yates shuffle
func Shuffle(cards []Card, rng *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Compare orders cards by rank, then suit.
func Compare(a, b Card) int {
	if a.Rank != b.Rank {
		return int(a.Rank) - int(b.Rank)
	}
	return int(a.Suit) - int(b.Suit)
}

// Sort orders cards ascending in place. The sort is stable so cards with
// identical faces keep their relative order.
func Sort(cards []Card) {
	slices.SortStableFunc(cards, Compare)
}

// Sorted returns an ascending copy of cards
func Sorted(cards []Card) []Card {
	out := slices.Clone(cards)
	Sort(out)
	return out
}

// MaxRank returns the highest rank among cards, or 0 for none
func MaxRank(cards []Card) Rank {
	var high Rank
	for _, c := range cards {
		if c.Rank > high {
			high = c.Rank
		}
	}
	return high
}

// AllRank reports whether cards is non-empty and every card has rank r
func AllRank(cards []Card, r Rank) bool {
	if len(cards) == 0 {
		return false
	}
	for _, c := range cards {
		if c.Rank != r {
			return false
		}
	}
	return true
}

// IDs returns the ids of cards in order
func IDs(cards []Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}
