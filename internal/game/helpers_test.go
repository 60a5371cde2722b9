package game

import (
	"testing"
	"time"

	"github.com/lox/tycoon/internal/deck"
	"github.com/stretchr/testify/require"
)

var deadline = time.Date(2026, 1, 1, 12, 0, 30, 0, time.UTC)

// hand parses card faces and uses each face as the card id
func hand(t *testing.T, labels string) []deck.Card {
	t.Helper()
	cs, err := deck.ParseLabels(labels)
	require.NoError(t, err)
	for i := range cs {
		cs[i].ID = cs[i].Label()
	}
	deck.Sort(cs)
	return cs
}

// playing builds a table in play with one seat per hand, named a, b, c...
// Seat a is to act.
func playing(t *testing.T, hands ...string) *GameState {
	t.Helper()
	s := New()
	for i, h := range hands {
		p := Player{ID: string(rune('a' + i)), Name: string(rune('A' + i))}
		p.resetForRound(hand(t, h))
		s.Players = append(s.Players, p)
	}
	s.Status = StatusPlaying
	s.Round = 1
	s.CurrentPlayerID = "a"
	return s
}

func ids(cards []deck.Card) []string {
	return deck.IDs(cards)
}

func lobby(t *testing.T, n int) *GameState {
	t.Helper()
	s := New()
	for i := 0; i < n; i++ {
		var err error
		s, err = Join(s, Player{ID: string(rune('a' + i)), Name: string(rune('A' + i))}, MaxPlayers)
		require.NoError(t, err)
	}
	return s
}
