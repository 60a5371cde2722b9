package simulator

import (
	"testing"

	"github.com/lox/tycoon/internal/bot"
	"github.com/lox/tycoon/internal/game"
	"github.com/lox/tycoon/internal/randutil"
	"github.com/stretchr/testify/require"
)

func newTestBot() *bot.Bot {
	return bot.New(randutil.New(99), quietLogger(), 0, 0)
}

func twoPlayers(t *testing.T) *game.GameState {
	t.Helper()
	state := game.New()
	for _, id := range []string{"a", "b"} {
		var err error
		state, err = game.Join(state, game.Player{ID: id, Name: id, IsBot: true}, game.MaxPlayers)
		require.NoError(t, err)
	}
	return state
}
