package bot

import (
	"github.com/lox/tycoon/internal/deck"
)

// holdings groups a hand into the combinations the bot knows how to play.
// Every group is in ascending rank order.
type holdings struct {
	sequences [][]deck.Card
	triples   [][]deck.Card
	pairs     [][]deck.Card
	singles   [][]deck.Card
	resets    []deck.Card
}

func analyze(hand []deck.Card) holdings {
	var h holdings
	sorted := deck.Sorted(hand)

	var naturals []deck.Card
	for _, c := range sorted {
		if c.IsReset() {
			h.resets = append(h.resets, c)
		} else {
			naturals = append(naturals, c)
		}
	}

	// Runs are searched per suit, suits taken in the order they first appear
	// in the sorted hand. A run's cards are not reused for another run.
	var suitOrder []deck.Suit
	bySuit := map[deck.Suit][]deck.Card{}
	for _, c := range naturals {
		if _, ok := bySuit[c.Suit]; !ok {
			suitOrder = append(suitOrder, c.Suit)
		}
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}
	for _, suit := range suitOrder {
		cards := bySuit[suit]
		for i := 0; i+3 <= len(cards); i++ {
			run := cards[i : i+3]
			if run[1].Rank == run[0].Rank+1 && run[2].Rank == run[1].Rank+1 {
				h.sequences = append(h.sequences, clone(run))
				i += 2
			}
		}
	}

	for start := 0; start < len(naturals); {
		end := start
		for end < len(naturals) && naturals[end].Rank == naturals[start].Rank {
			end++
		}
		group := naturals[start:end]
		if len(group) >= 3 {
			h.triples = append(h.triples, clone(group[:3]))
		}
		if len(group) >= 2 {
			h.pairs = append(h.pairs, clone(group[:2]))
		}
		start = end
	}

	for _, c := range naturals {
		h.singles = append(h.singles, []deck.Card{c})
	}
	return h
}

func clone(cards []deck.Card) []deck.Card {
	return append([]deck.Card(nil), cards...)
}
