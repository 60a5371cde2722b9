package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit. The declaration order is the tie-break order
// used when sorting cards of equal rank.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits lists every suit in sort order.
var Suits = [4]Suit{Clubs, Diamonds, Hearts, Spades}

// String returns the symbol for a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// Letter returns the single-letter wire form of a suit (C, D, H, S)
func (s Suit) Letter() string {
	switch s {
	case Spades:
		return "S"
	case Hearts:
		return "H"
	case Diamonds:
		return "D"
	case Clubs:
		return "C"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// MarshalText encodes the suit as its letter.
func (s Suit) MarshalText() ([]byte, error) {
	if s < Clubs || s > Spades {
		return nil, fmt.Errorf("invalid suit: %d", int(s))
	}
	return []byte(s.Letter()), nil
}

// UnmarshalText decodes a suit letter.
func (s *Suit) UnmarshalText(text []byte) error {
	suit, err := parseSuit(string(text))
	if err != nil {
		return err
	}
	*s = suit
	return nil
}

func parseSuit(v string) (Suit, error) {
	switch strings.ToUpper(v) {
	case "S":
		return Spades, nil
	case "H":
		return Hearts, nil
	case "D":
		return Diamonds, nil
	case "C":
		return Clubs, nil
	}
	return 0, fmt.Errorf("invalid suit: %q", v)
}

// Rank represents a card rank. Ranks run Three..Two where Two (15) is the
// highest card and the reset card.
type Rank int

const (
	Three Rank = iota + 3
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
	Two
)

// ResetRank is the rank whose cards clear the pile instead of beating it.
const ResetRank = Two

// String returns the conventional label of a rank
func (r Rank) String() string {
	switch {
	case r >= Three && r <= Ten:
		return fmt.Sprintf("%d", int(r))
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	case r == Two:
		return "2"
	default:
		return "?"
	}
}

// Valid reports whether the rank is part of the deck.
func (r Rank) Valid() bool {
	return r >= Three && r <= Two
}

func parseRank(v string) (Rank, error) {
	switch strings.ToUpper(v) {
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "A":
		return Ace, nil
	case "2":
		return Two, nil
	case "T":
		return Ten, nil
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n < 3 || n > 10 {
		return 0, fmt.Errorf("invalid rank: %q", v)
	}
	return Rank(n), nil
}

// Card is a single playing card. Two cards are the same card only if their
// IDs match; rank and suit are its face.
type Card struct {
	ID   string `json:"id"`
	Suit Suit   `json:"suit"`
	Rank Rank   `json:"rank"`
}

// Label returns the face of the card without its id (e.g. "10H")
func (c Card) Label() string {
	return c.Rank.String() + c.Suit.Letter()
}

// String returns the card with its suit symbol (e.g. "10♥")
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// IsReset returns true if the card is of the reset rank
func (c Card) IsReset() bool {
	return c.Rank == ResetRank
}

// ParseLabel parses a card face such as "7S", "10h", "Qd" or "2C". The
// returned card has no id.
func ParseLabel(label string) (Card, error) {
	label = strings.TrimSpace(label)
	if len(label) < 2 {
		return Card{}, fmt.Errorf("invalid card: %q", label)
	}
	rank, err := parseRank(label[:len(label)-1])
	if err != nil {
		return Card{}, err
	}
	suit, err := parseSuit(label[len(label)-1:])
	if err != nil {
		return Card{}, err
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// ParseLabels parses a whitespace separated list of card faces.
func ParseLabels(s string) ([]Card, error) {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseLabel(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}
