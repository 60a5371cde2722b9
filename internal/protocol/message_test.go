package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lox/tycoon/internal/deck"
	"github.com/lox/tycoon/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireFormat(t *testing.T) {
	msg, err := PlayCards([]deck.Card{{ID: "7S-1", Suit: deck.Spades, Rank: deck.Seven}}, false)
	require.NoError(t, err)

	b, err := Marshal(msg)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "PLAY_CARDS", raw["type"])
	assert.Equal(t, map[string]any{
		"cards":   []any{map[string]any{"id": "7S-1", "suit": "S", "rank": float64(7)}},
		"isReset": false,
	}, raw["data"])
	assert.Contains(t, raw, "timestamp")
}

func TestPayload(t *testing.T) {
	tests := []struct {
		name string
		msg  func() (*Message, error)
		want any
	}{
		{name: "join", msg: func() (*Message, error) { return Join("p1", "Ana") }, want: JoinData{ID: "p1", Name: "Ana"}},
		{name: "pass", msg: Pass, want: PassData{}},
		{name: "leave", msg: func() (*Message, error) { return Leave("p1") }, want: LeaveData{ID: "p1"}},
		{
			name: "play",
			msg: func() (*Message, error) {
				return PlayCards([]deck.Card{{ID: "2H-9", Suit: deck.Hearts, Rank: deck.Two}}, true)
			},
			want: PlayCardsData{Cards: []deck.Card{{ID: "2H-9", Suit: deck.Hearts, Rank: deck.Two}}, IsReset: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := tt.msg()
			require.NoError(t, err)

			b, err := Marshal(msg)
			require.NoError(t, err)
			decoded, err := Unmarshal(b)
			require.NoError(t, err)

			got, err := decoded.Payload()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGameStateUpdate(t *testing.T) {
	s := game.New()
	s.Version = 4
	s.Status = game.StatusPlaying
	s.CurrentPlayerID = "p1"
	s.TurnDeadline = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.Players = []game.Player{{ID: "p1", Name: "Ana", HandCount: 2, Hand: []deck.Card{
		{ID: "3C-1", Suit: deck.Clubs, Rank: deck.Three},
		{ID: "KD-1", Suit: deck.Diamonds, Rank: deck.King},
	}}, {ID: "p2", Name: "Bo", HandCount: 5}}

	msg, err := GameStateUpdate(s)
	require.NoError(t, err)

	got, err := msg.Payload()
	require.NoError(t, err)
	state, ok := got.(*game.GameState)
	require.True(t, ok)
	assert.Equal(t, s, state)
}

func TestPayloadErrors(t *testing.T) {
	_, err := (&Message{Type: "SHOUT"}).Payload()
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = (&Message{Type: TypeJoin, Data: json.RawMessage(`[1]`)}).Payload()
	assert.Error(t, err)

	_, err = Unmarshal([]byte("not json"))
	assert.Error(t, err)
}

func TestPlayCardsIDs(t *testing.T) {
	d := PlayCardsData{Cards: []deck.Card{{ID: "a"}, {ID: "b"}}}
	assert.Equal(t, []string{"a", "b"}, d.CardIDs())
}
