package rules

import (
	"errors"
	"fmt"

	"github.com/lox/tycoon/internal/deck"
)

// Reasons a move is rejected. Verdict.Err is one of these, possibly wrapped
// with detail.
var (
	ErrNoCards        = errors.New("no cards selected")
	ErrFinishOnReset  = errors.New("cannot finish with a 2")
	ErrInvalidCombo   = errors.New("invalid combination")
	ErrResetCount     = errors.New("incorrect number of 2's to reset this pile")
	ErrWrongType      = errors.New("wrong combination type")
	ErrSequenceLength = errors.New("sequence must be exactly 3 cards")
	ErrNotHigher      = errors.New("must play higher value")
)

// Verdict is the outcome of validating a proposed play. A valid verdict has
// a nil Err; an invalid one always carries the reason.
type Verdict struct {
	Valid   bool
	IsReset bool
	Type    HandType
	Err     error
}

// Message returns the human readable reason for a rejected move
func (v Verdict) Message() string {
	if v.Err == nil {
		return ""
	}
	return v.Err.Error()
}

func reject(err error) Verdict {
	return Verdict{Err: err}
}

// ResetCountFor returns how many reset cards are needed to clear a pile of
// the given type: one for singles and pairs, two for triples and sequences.
func ResetCountFor(pileType HandType) int {
	switch pileType {
	case Triple, Sequence:
		return 2
	default:
		return 1
	}
}

// Validate decides whether cards may be played onto pile by a player who
// currently holds handSize cards. A nil pile means the table is open.
func Validate(cards []deck.Card, pile *Pile, handSize int) Verdict {
	if len(cards) == 0 {
		return reject(ErrNoCards)
	}

	allResets := deck.AllRank(cards, deck.ResetRank)

	// Nobody may go out on reset cards, whatever is on the table.
	if allResets && len(cards) == handSize {
		return reject(ErrFinishOnReset)
	}

	if pile == nil {
		handType, ok := Classify(cards)
		if !ok {
			return reject(ErrInvalidCombo)
		}
		if allResets {
			return Verdict{Valid: true, IsReset: true, Type: Reset}
		}
		return Verdict{Valid: true, Type: handType}
	}

	if allResets {
		if len(cards) != ResetCountFor(pile.Type) {
			return reject(ErrResetCount)
		}
		return Verdict{Valid: true, IsReset: true, Type: Reset}
	}

	handType, ok := Classify(cards)
	if !ok || handType != pile.Type {
		return reject(fmt.Errorf("%w: must play a %s", ErrWrongType, pile.Type))
	}

	if handType == Sequence && len(cards) != 3 {
		return reject(ErrSequenceLength)
	}

	if deck.MaxRank(cards) <= deck.MaxRank(pile.Cards) {
		return reject(ErrNotHigher)
	}

	return Verdict{Valid: true, Type: handType}
}
