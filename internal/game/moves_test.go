package game

import (
	"testing"
	"time"

	"github.com/lox/tycoon/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPlayOpensPile(t *testing.T) {
	s := playing(t, "5C 5D 9H", "6C 6D", "7C 7D", "8C 8D")

	next, verdict, err := ApplyPlay(s, "a", []string{"5D", "5C"}, deadline)
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
	assert.Equal(t, rules.Pair, verdict.Type)

	require.NotNil(t, next.Pile)
	assert.Equal(t, rules.Pair, next.Pile.Type)
	assert.Equal(t, "a", next.Pile.PlayerID)
	assert.Equal(t, []string{"5C", "5D"}, ids(next.Pile.Cards))

	a := next.Player("a")
	assert.Equal(t, []string{"9H"}, ids(a.Hand))
	assert.Equal(t, 1, a.HandCount)
	assert.Equal(t, ActionPlay, a.LastAction)

	assert.Equal(t, "d", next.CurrentPlayerID)
	assert.Equal(t, deadline, next.TurnDeadline)
	require.NoError(t, next.Check())
}

func TestApplyPlayRejects(t *testing.T) {
	s := playing(t, "5C 5D 9H", "6C 6D")
	s.Pile = &Pile{Cards: hand(t, "10S"), Type: rules.Single, PlayerID: "b"}

	tests := []struct {
		name    string
		player  string
		cards   []string
		wantErr error
		reason  error
	}{
		{name: "not your turn", player: "b", cards: []string{"6C"}, wantErr: ErrNotYourTurn},
		{name: "unknown player", player: "z", cards: []string{"6C"}, wantErr: ErrUnknownPlayer},
		{name: "card not held", player: "a", cards: []string{"6C"}, wantErr: ErrCardNotHeld},
		{name: "duplicate card", player: "a", cards: []string{"9H", "9H"}, wantErr: ErrDuplicateCard},
		{name: "lower single", player: "a", cards: []string{"9H"}, wantErr: ErrIllegalMove, reason: rules.ErrNotHigher},
		{name: "wrong type", player: "a", cards: []string{"5C", "5D"}, wantErr: ErrIllegalMove, reason: rules.ErrWrongType},
		{name: "no cards", player: "a", cards: nil, wantErr: ErrIllegalMove, reason: rules.ErrNoCards},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Clone()
			next, verdict, err := ApplyPlay(s, tt.player, tt.cards, deadline)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, next)
			if tt.reason != nil {
				assert.False(t, verdict.Valid)
				assert.ErrorIs(t, err, tt.reason)
				assert.ErrorIs(t, verdict.Err, tt.reason)
			}
			assert.Equal(t, before, s)
		})
	}
}

func TestApplyPlayNotPlaying(t *testing.T) {
	s := playing(t, "5C", "6C")
	s.Status = StatusDealing

	_, _, err := ApplyPlay(s, "a", []string{"5C"}, deadline)
	assert.ErrorIs(t, err, ErrNotPlaying)

	_, err = ApplyPass(s, "a", deadline)
	assert.ErrorIs(t, err, ErrNotPlaying)
}

// Pile is a pair of sevens; a pair of kings beats it and the turn moves on.
func TestScenarioPairBeatsPair(t *testing.T) {
	s := playing(t, "KH KS 4C", "5D 6D", "8C 9C", "10C JC")
	s.Pile = &Pile{Cards: hand(t, "7H 7S"), Type: rules.Pair, PlayerID: "b"}

	next, verdict, err := ApplyPlay(s, "a", []string{"KH", "KS"}, deadline)
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
	assert.False(t, verdict.IsReset)

	assert.Equal(t, rules.Pair, next.Pile.Type)
	assert.Equal(t, []string{"KH", "KS"}, ids(next.Pile.Cards))
	assert.Equal(t, "a", next.Pile.PlayerID)
	assert.Equal(t, "d", next.CurrentPlayerID)
}

// A single two clears a single ace and the player leads again.
func TestScenarioResetKeepsTurn(t *testing.T) {
	s := playing(t, "2S 5C", "6D 7D", "8C 9C")
	s.Pile = &Pile{Cards: hand(t, "AH"), Type: rules.Single, PlayerID: "c"}

	next, verdict, err := ApplyPlay(s, "a", []string{"2S"}, deadline)
	require.NoError(t, err)
	assert.True(t, verdict.IsReset)
	assert.Equal(t, rules.Reset, verdict.Type)

	assert.Nil(t, next.Pile)
	assert.Equal(t, "a", next.CurrentPlayerID)
	assert.Equal(t, []string{"5C"}, ids(next.Player("a").Hand))
	assert.Equal(t, ActionPlay, next.Player("a").LastAction)
}

// Nobody may go out on twos. The finishing check runs before the reset
// count, so a hand of exactly two twos is refused for finishing whatever
// the pile is.
func TestScenarioTwosCannotFinish(t *testing.T) {
	t.Run("wrong reset count", func(t *testing.T) {
		s := playing(t, "2C 2D 5H", "6D")
		s.Pile = &Pile{Cards: hand(t, "9S"), Type: rules.Single, PlayerID: "b"}

		_, verdict, err := ApplyPlay(s, "a", []string{"2C", "2D"}, deadline)
		require.ErrorIs(t, err, rules.ErrResetCount)
		assert.Equal(t, "incorrect number of 2's to reset this pile", verdict.Message())
	})

	for _, pile := range []*Pile{
		{Cards: hand(t, "9S"), Type: rules.Single, PlayerID: "b"},
		{Cards: hand(t, "9C 9D 9S"), Type: rules.Triple, PlayerID: "b"},
		nil,
	} {
		s := playing(t, "2C 2D", "6D")
		s.Pile = pile

		_, verdict, err := ApplyPlay(s, "a", []string{"2C", "2D"}, deadline)
		require.ErrorIs(t, err, rules.ErrFinishOnReset)
		assert.Equal(t, "cannot finish with a 2", verdict.Message())
	}
}

func TestPassAroundClearsPile(t *testing.T) {
	s := playing(t, "5C 9H", "6C 7C", "7D 8D", "8C 10D")

	s, _, err := ApplyPlay(s, "a", []string{"5C"}, deadline)
	require.NoError(t, err)

	for _, id := range []string{"d", "c"} {
		s, err = ApplyPass(s, id, deadline)
		require.NoError(t, err)
		require.NotNil(t, s.Pile, "pile should survive %s passing", id)
		assert.Equal(t, ActionPass, s.Player(id).LastAction)
	}

	s, err = ApplyPass(s, "b", deadline)
	require.NoError(t, err)
	assert.Nil(t, s.Pile)
	assert.Equal(t, "a", s.CurrentPlayerID)
}

// The pile's owner goes out; the pile clears when the turn reaches the seat
// after the owner, never waiting for the owner's empty seat.
func TestScenarioGhostPass(t *testing.T) {
	s := playing(t, "9H", "6C 7C", "7D 8D", "8C 10D")

	s, _, err := ApplyPlay(s, "a", []string{"9H"}, deadline)
	require.NoError(t, err)
	assert.True(t, s.Player("a").IsFinished)
	assert.Equal(t, 1, *s.Player("a").Rank)
	assert.Equal(t, []string{"a"}, s.Winners)
	assert.Equal(t, "d", s.CurrentPlayerID)

	s, err = ApplyPass(s, "d", deadline)
	require.NoError(t, err)
	assert.NotNil(t, s.Pile)

	s, err = ApplyPass(s, "c", deadline)
	require.NoError(t, err)
	assert.NotNil(t, s.Pile)
	assert.Equal(t, "b", s.CurrentPlayerID)

	s, err = ApplyPass(s, "b", deadline)
	require.NoError(t, err)
	assert.Nil(t, s.Pile)
	assert.Equal(t, "d", s.CurrentPlayerID)
	require.NoError(t, s.Check())
}

func TestLastCardEndsRound(t *testing.T) {
	s := playing(t, "3C", "5D 6D")

	next, _, err := ApplyPlay(s, "a", []string{"3C"}, deadline)
	require.NoError(t, err)

	assert.Equal(t, StatusGameOver, next.Status)
	assert.Equal(t, "b", next.LastLoserID)
	assert.Equal(t, []string{"a"}, next.Winners)
	assert.Empty(t, next.CurrentPlayerID)
	assert.True(t, next.TurnDeadline.IsZero())
	require.NoError(t, next.Check())
}

func TestFinishingOrder(t *testing.T) {
	s := playing(t, "3C", "4C", "5C 6C")
	// a -> c -> b
	s, _, err := ApplyPlay(s, "a", []string{"3C"}, deadline)
	require.NoError(t, err)
	assert.Equal(t, "c", s.CurrentPlayerID)

	s, _, err = ApplyPlay(s, "c", []string{"5C"}, deadline)
	require.NoError(t, err)
	assert.Equal(t, "b", s.CurrentPlayerID)

	s, err = ApplyPass(s, "b", deadline)
	require.NoError(t, err)
	// c owns the pile and is next, so it clears.
	assert.Nil(t, s.Pile)
	assert.Equal(t, "c", s.CurrentPlayerID)

	s, _, err = ApplyPlay(s, "c", []string{"6C"}, deadline)
	require.NoError(t, err)

	assert.Equal(t, StatusGameOver, s.Status)
	assert.Equal(t, []string{"a", "c"}, s.Winners)
	assert.Equal(t, 2, *s.Player("c").Rank)
	assert.Equal(t, "b", s.LastLoserID)
}

func TestApplyPassRejects(t *testing.T) {
	s := playing(t, "5C", "6C")
	before := s.Clone()

	_, err := ApplyPass(s, "b", deadline)
	assert.ErrorIs(t, err, ErrNotYourTurn)
	_, err = ApplyPass(s, "z", deadline)
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	assert.Equal(t, before, s)
}

func TestPassRefreshesDeadline(t *testing.T) {
	s := playing(t, "5C", "6C")
	s.TurnDeadline = deadline
	later := deadline.Add(30 * time.Second)

	next, err := ApplyPass(s, "a", later)
	require.NoError(t, err)
	assert.Equal(t, later, next.TurnDeadline)
	assert.Equal(t, deadline, s.TurnDeadline)
}

func TestCardsAreConserved(t *testing.T) {
	s := playing(t, "3C 4C 5C 9D", "3D 4D 5D 9H", "3H 4H 5H 9S")
	total := s.TotalCards()
	onTable := func(s *GameState) int {
		n := 0
		if s.Pile != nil {
			n = len(s.Pile.Cards)
		}
		return n
	}

	s, _, err := ApplyPlay(s, "a", []string{"3C", "4C", "5C"}, deadline)
	require.NoError(t, err)
	assert.Equal(t, total, s.TotalCards()+onTable(s))
	assert.Equal(t, rules.Sequence, s.Pile.Type)
	assert.Equal(t, "c", s.CurrentPlayerID)

	s, _, err = ApplyPlay(s, "c", []string{"3H", "4H", "5H"}, deadline)
	require.ErrorIs(t, err, ErrIllegalMove)
	assert.Nil(t, s)
}
