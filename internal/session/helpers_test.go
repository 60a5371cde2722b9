package session

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/tycoon/internal/config"
	"github.com/lox/tycoon/internal/game"
	"github.com/lox/tycoon/internal/protocol"
	"github.com/lox/tycoon/internal/randutil"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func testSettings() config.GameSettings {
	s := config.Default().Game
	s.BotThinkMin = 1500 * time.Millisecond
	s.BotThinkMax = 1500 * time.Millisecond
	return s
}

// wire records the snapshots the host sends to each peer
type wire struct {
	t    *testing.T
	mu   sync.Mutex
	sent map[string][]*game.GameState
}

func newWire(t *testing.T) *wire {
	return &wire{t: t, sent: map[string][]*game.GameState{}}
}

func (w *wire) SendTo(peerID string, msg *protocol.Message) error {
	payload, err := msg.Payload()
	require.NoError(w.t, err)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sent[peerID] = append(w.sent[peerID], payload.(*game.GameState))
	return nil
}

func (w *wire) Broadcast(msg *protocol.Message) error {
	w.t.Error("host should address every snapshot to one peer")
	return nil
}

func (w *wire) count(peerID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sent[peerID])
}

func (w *wire) last(peerID string) *game.GameState {
	w.mu.Lock()
	defer w.mu.Unlock()
	snaps := w.sent[peerID]
	if len(snaps) == 0 {
		return nil
	}
	return snaps[len(snaps)-1]
}

type fixture struct {
	host  *Host
	clock *quartz.Mock
	wire  *wire

	mu    sync.Mutex
	views []*game.GameState
}

func newFixture(t *testing.T, hostID string) *fixture {
	t.Helper()
	f := &fixture{clock: quartz.NewMock(t), wire: newWire(t)}

	host, err := NewHost(HostConfig{
		ID:        hostID,
		Name:      "Host",
		Settings:  testSettings(),
		Transport: f.wire,
		Clock:     f.clock,
		Rand:      randutil.New(42),
		Logger:    quietLogger(),
		OnUpdate: func(s *game.GameState) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.views = append(f.views, s)
		},
	})
	require.NoError(t, err)
	require.NoError(t, host.Start(context.Background()))
	t.Cleanup(host.Close)

	f.host = host
	return f
}

func (f *fixture) lastView() *game.GameState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.views[len(f.views)-1]
}

// advance moves the mock clock forward by d, stopping at every timer on the
// way so each fires in order.
func (f *fixture) advance(t *testing.T, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for d > 0 {
		step := d
		if next, ok := f.clock.Peek(); ok && next < step {
			step = next
		}
		f.clock.Advance(step).MustWait(ctx)
		d -= step
	}
}

func (f *fixture) send(t *testing.T, peerID string, build func() (*protocol.Message, error)) {
	t.Helper()
	msg, err := build()
	require.NoError(t, err)
	f.host.HandleMessage(peerID, msg)
}

// toPlay starts a round and advances through the deal
func (f *fixture) toPlay(t *testing.T) {
	t.Helper()
	require.NoError(t, f.host.StartRound())
	require.Equal(t, game.StatusShuffling, f.host.State().Status)
	f.advance(t, 2*time.Second)
	require.Equal(t, game.StatusDealing, f.host.State().Status)
	f.advance(t, 1500*time.Millisecond)
	require.Equal(t, game.StatusPlaying, f.host.State().Status)
}
