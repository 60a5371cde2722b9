// Package bot plays a seat without a human. Its strategy is greedy: lead
// with the biggest combination in the hand, answer with the cheapest card
// that beats the pile, and spend twos only to take control back.
package bot

import (
	"fmt"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/tycoon/internal/deck"
	"github.com/lox/tycoon/internal/rules"
)

// Decision is a bot's chosen move. No cards means pass.
type Decision struct {
	Cards     []deck.Card
	IsReset   bool
	Reasoning string
}

// Pass reports whether the decision is to pass
func (d Decision) Pass() bool {
	return len(d.Cards) == 0
}

// Move picks a play for hand against pile. It returns false when the bot
// should pass. Move does not consult the validator.
func Move(hand []deck.Card, pile *rules.Pile) (Decision, bool) {
	h := analyze(hand)

	if pile == nil {
		switch {
		case len(h.sequences) > 0:
			return Decision{Cards: h.sequences[0], Reasoning: "lead lowest sequence"}, true
		case len(h.triples) > 0:
			return Decision{Cards: h.triples[0], Reasoning: "lead lowest triple"}, true
		case len(h.pairs) > 0:
			return Decision{Cards: h.pairs[0], Reasoning: "lead lowest pair"}, true
		case len(h.singles) > 0:
			return Decision{Cards: h.singles[0], Reasoning: "lead lowest single"}, true
		case len(h.resets) > 1:
			return Decision{Cards: h.resets[:1], IsReset: true, Reasoning: "lead with a two"}, true
		}
		return Decision{Reasoning: "nothing to lead"}, false
	}

	top := deck.MaxRank(pile.Cards)

	var candidates [][]deck.Card
	switch pile.Type {
	case rules.Sequence:
		candidates = h.sequences
	case rules.Triple:
		candidates = h.triples
	case rules.Pair:
		candidates = h.pairs
	case rules.Single:
		candidates = h.singles
	}
	for _, combo := range candidates {
		if combo[len(combo)-1].Rank > top {
			return Decision{Cards: combo, Reasoning: fmt.Sprintf("beat %s with %s", pile.Type, combo[len(combo)-1])}, true
		}
	}

	need := rules.ResetCountFor(pile.Type)
	if len(h.resets) >= need && len(hand) > need {
		return Decision{Cards: h.resets[:need], IsReset: true, Reasoning: fmt.Sprintf("reset %s with %d twos", pile.Type, need)}, true
	}

	return Decision{Reasoning: "cannot beat " + string(pile.Type)}, false
}

// Bot wraps Move with validation and a randomized thinking delay
type Bot struct {
	rng      *rand.Rand
	logger   *log.Logger
	minThink time.Duration
	maxThink time.Duration
}

// New creates a bot that thinks for between minThink and maxThink
func New(rng *rand.Rand, logger *log.Logger, minThink, maxThink time.Duration) *Bot {
	if maxThink < minThink {
		maxThink = minThink
	}
	return &Bot{
		rng:      rng,
		logger:   logger.WithPrefix("bot"),
		minThink: minThink,
		maxThink: maxThink,
	}
}

// Think returns how long the bot waits before acting
func (b *Bot) Think() time.Duration {
	spread := b.maxThink - b.minThink
	if spread <= 0 {
		return b.minThink
	}
	return b.minThink + time.Duration(b.rng.Int64N(int64(spread)+1))
}

// Decide picks a move for hand and checks it against the rules. A move the
// validator refuses becomes a pass.
func (b *Bot) Decide(playerID string, hand []deck.Card, pile *rules.Pile) Decision {
	d, ok := Move(hand, pile)
	if !ok {
		b.logger.Debug("Passing", "player", playerID, "reason", d.Reasoning)
		return Decision{Reasoning: d.Reasoning}
	}

	verdict := rules.Validate(d.Cards, pile, len(hand))
	if !verdict.Valid {
		b.logger.Warn("Heuristic chose an illegal move, passing",
			"player", playerID, "cards", d.Cards, "reason", verdict.Message())
		return Decision{Reasoning: verdict.Message()}
	}

	d.IsReset = verdict.IsReset
	b.logger.Debug("Playing", "player", playerID, "cards", d.Cards, "reason", d.Reasoning)
	return d
}
