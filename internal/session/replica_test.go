package session

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/tycoon/internal/deck"
	"github.com/lox/tycoon/internal/game"
	"github.com/lox/tycoon/internal/protocol"
	"github.com/lox/tycoon/internal/randutil"
	"github.com/lox/tycoon/internal/rules"
	"github.com/lox/tycoon/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(t *testing.T, s *game.GameState) *protocol.Message {
	t.Helper()
	msg, err := protocol.GameStateUpdate(s)
	require.NoError(t, err)
	return msg
}

// recordingConn captures what a replica sends
type recordingConn struct {
	sent []*protocol.Message
}

func (c *recordingConn) Send(msg *protocol.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

func (c *recordingConn) Close() error { return nil }

func playingSnapshot(t *testing.T, current string) *game.GameState {
	t.Helper()
	hand, err := deck.ParseLabels("5C 5D 9H")
	require.NoError(t, err)
	for i := range hand {
		hand[i].ID = hand[i].Label()
	}

	s := game.New()
	s.Version = 10
	s.Status = game.StatusPlaying
	s.CurrentPlayerID = current
	s.Players = []game.Player{
		{ID: "me", Name: "Me", Hand: hand, HandCount: 3},
		{ID: "you", Name: "You", HandCount: 4},
	}
	return s
}

func TestReplicaKeepsNewestSnapshot(t *testing.T) {
	var updates []uint64
	r := NewReplica("me", "Me", quietLogger(), func(s *game.GameState) { updates = append(updates, s.Version) })
	assert.Nil(t, r.State())
	assert.Nil(t, r.Me())

	s := playingSnapshot(t, "me")
	r.Receive(snapshot(t, s))

	older := s.Clone()
	older.Version = 9
	older.CurrentPlayerID = "you"
	r.Receive(snapshot(t, older))
	r.Receive(snapshot(t, s))

	assert.Equal(t, []uint64{10}, updates)
	assert.Equal(t, "me", r.State().CurrentPlayerID)
	assert.True(t, r.CanAct())

	newer := s.Clone()
	newer.Version = 11
	newer.CurrentPlayerID = "you"
	r.Receive(snapshot(t, newer))
	assert.Equal(t, []uint64{10, 11}, updates)
	assert.False(t, r.CanAct())

	// Requests from other participants are not meant for a replica.
	pass, err := protocol.Pass()
	require.NoError(t, err)
	r.Receive(pass)
	assert.Equal(t, uint64(11), r.State().Version)
}

func TestReplicaValidatesBeforeSending(t *testing.T) {
	r := NewReplica("me", "Me", quietLogger(), nil)
	_, err := r.Play([]string{"5C"})
	assert.ErrorIs(t, err, game.ErrNotYourTurn)

	s := playingSnapshot(t, "me")
	s.Pile = &game.Pile{Cards: []deck.Card{{ID: "KS", Suit: deck.Spades, Rank: deck.King}}, Type: rules.Single, PlayerID: "you"}
	r.Receive(snapshot(t, s))

	assert.ErrorIs(t, r.Pass(), ErrNotConnected)

	conn := &recordingConn{}
	r.Attach(conn)

	verdict, err := r.Play([]string{"9H"})
	assert.ErrorIs(t, err, rules.ErrNotHigher)
	assert.Equal(t, "must play higher value", verdict.Message())

	_, err = r.Play([]string{"KS"})
	assert.ErrorIs(t, err, game.ErrCardNotHeld)
	assert.Empty(t, conn.sent)

	require.NoError(t, r.Pass())
	require.Len(t, conn.sent, 1)
	assert.Equal(t, protocol.TypePass, conn.sent[0].Type)

	s.Version++
	s.Pile = nil
	r.Receive(snapshot(t, s))
	verdict, err = r.Play([]string{"5D", "5C"})
	require.NoError(t, err)
	assert.Equal(t, rules.Pair, verdict.Type)
	require.Len(t, conn.sent, 2)

	payload, err := conn.sent[1].Payload()
	require.NoError(t, err)
	assert.Equal(t, []string{"5D", "5C"}, payload.(protocol.PlayCardsData).CardIDs())
}

func TestReplicaPassNeedsTurn(t *testing.T) {
	r := NewReplica("me", "Me", quietLogger(), nil)
	r.Attach(&recordingConn{})
	r.Receive(snapshot(t, playingSnapshot(t, "you")))
	assert.ErrorIs(t, r.Pass(), game.ErrNotYourTurn)
}

// A host and two replicas over the in-memory network play until the round
// is settled by a departure.
func TestSessionOverNetwork(t *testing.T) {
	clock := quartz.NewMock(t)
	net := transport.NewNetwork(quietLogger())
	host, err := NewHost(HostConfig{
		ID:        "host",
		Name:      "Host",
		Settings:  testSettings(),
		Transport: net,
		Clock:     clock,
		Rand:      randutil.New(5),
		Logger:    quietLogger(),
	})
	require.NoError(t, err)
	net.Serve(host)
	t.Cleanup(host.Close)
	t.Cleanup(net.Close)

	ana := NewReplica("ana", "Ana", quietLogger(), nil)
	link, err := net.Connect("ana", ana)
	require.NoError(t, err)
	ana.Attach(link)
	require.NoError(t, ana.Join())

	require.Eventually(t, func() bool {
		s := ana.State()
		return s != nil && s.Player("ana") != nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, host.StartRound())
	f := &fixture{host: host, clock: clock}
	f.advance(t, 3500*time.Millisecond)

	require.Eventually(t, ana.CanAct, time.Second, 5*time.Millisecond)
	me := ana.Me()
	require.Len(t, me.Hand, 26)
	_, err = ana.Play([]string{me.Hand[0].ID})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return host.State().CurrentPlayerID == "host"
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		s := ana.State()
		return s.Player("ana").HandCount == 25 && !ana.CanAct()
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, ana.Leave())
	require.Eventually(t, func() bool {
		return host.State().Status == game.StatusGameOver
	}, time.Second, 5*time.Millisecond)
	assert.Nil(t, host.State().Player("ana"))
}
