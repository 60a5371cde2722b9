// Package session runs a table. The Host holds the only authoritative
// GameState and is the only writer: every trigger (a request from a
// participant, a local action, a timer) computes the next snapshot from the
// current one, commits it with a new version, and publishes it, all under
// one lock. Participants keep a Replica of the latest snapshot they were
// sent.
package session

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/lox/tycoon/internal/bot"
	"github.com/lox/tycoon/internal/config"
	"github.com/lox/tycoon/internal/deck"
	"github.com/lox/tycoon/internal/game"
	"github.com/lox/tycoon/internal/protocol"
	"github.com/lox/tycoon/internal/randutil"
	"github.com/lox/tycoon/internal/rules"
	"github.com/lox/tycoon/internal/transport"
)

var (
	ErrNoSeat  = errors.New("host has no seat at the table")
	ErrNotBot  = errors.New("player is not a bot")
	ErrClosed  = errors.New("session closed")
	ErrStarted = errors.New("session already started")
)

// HostConfig describes a new host
type HostConfig struct {
	// ID and Name seat the hosting participant. An empty ID runs a host that
	// only referees, as the simulator does.
	ID   string
	Name string

	Settings  config.GameSettings
	Transport transport.Transport
	Clock     quartz.Clock
	Rand      *rand.Rand
	Logger    *log.Logger

	// OnUpdate receives the hosting participant's view after every commit.
	// It is called with the host locked and must not call back into it.
	OnUpdate func(*game.GameState)
}

// Host is the authoritative side of a session
type Host struct {
	id        string
	settings  config.GameSettings
	transport transport.Transport
	clock     quartz.Clock
	rng       *rand.Rand
	bot       *bot.Bot
	logger    *log.Logger
	onUpdate  func(*game.GameState)

	mu         sync.Mutex
	state      *game.GameState
	peers      map[string]bool
	opener     string
	botTimer   *quartz.Timer
	stageTimer *quartz.Timer
	cancel     context.CancelFunc
	closed     bool
}

// NewHost creates a host with an open lobby
func NewHost(cfg HostConfig) (*Host, error) {
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Rand == nil {
		cfg.Rand = randutil.New(randutil.Resolve(cfg.Settings.Seed))
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	logger := cfg.Logger.WithPrefix("host")

	state := game.New()
	if cfg.ID != "" {
		var err error
		state, err = game.Join(state, game.Player{ID: cfg.ID, Name: cfg.Name, IsHost: true}, cfg.Settings.MaxPlayers)
		if err != nil {
			return nil, fmt.Errorf("seat host: %w", err)
		}
	}

	return &Host{
		id:        cfg.ID,
		settings:  cfg.Settings,
		transport: cfg.Transport,
		clock:     cfg.Clock,
		rng:       cfg.Rand,
		bot:       bot.New(randutil.Child(cfg.Rand), cfg.Logger, cfg.Settings.BotThinkMin, cfg.Settings.BotThinkMax),
		logger:    logger,
		onUpdate:  cfg.OnUpdate,
		state:     state,
		peers:     make(map[string]bool),
	}, nil
}

// Start begins polling the turn deadline and publishes the lobby. The host
// runs until ctx is done or Close is called.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	if h.cancel != nil {
		return ErrStarted
	}

	ctx, h.cancel = context.WithCancel(ctx)
	h.clock.TickerFunc(ctx, h.settings.DeadlinePoll, func() error {
		h.checkDeadline()
		return nil
	}, "deadline")

	h.publish()
	return nil
}

// Close stops every timer. Later requests are ignored.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	h.stopBot()
	h.stopStage()
	if h.cancel != nil {
		h.cancel()
	}
}

// State returns a copy of the full authoritative snapshot
func (h *Host) State() *game.GameState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Clone()
}

// View returns the snapshot as the hosting participant sees it
func (h *Host) View() *game.GameState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.ViewFor(h.id)
}

// HandleMessage applies a request from a participant. Requests that are
// malformed, out of turn or against the rules are dropped without a reply.
func (h *Host) HandleMessage(peerID string, msg *protocol.Message) {
	payload, err := msg.Payload()
	if err != nil {
		h.logger.Debug("Dropped undecodable request", "peer", peerID, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	var next *game.GameState
	switch p := payload.(type) {
	case protocol.JoinData:
		if p.ID != "" && p.ID != peerID {
			err = fmt.Errorf("join claims id %s", p.ID)
			break
		}
		name := p.Name
		if name == "" {
			name = peerID
		}
		next, err = game.Join(h.state, game.Player{ID: peerID, Name: name}, h.settings.MaxPlayers)

	case protocol.PlayCardsData:
		var verdict rules.Verdict
		next, verdict, err = game.ApplyPlay(h.state, peerID, p.CardIDs(), h.deadline())
		if err == nil && verdict.IsReset != p.IsReset {
			h.logger.Debug("Client reset flag disagrees with validator", "peer", peerID, "claimed", p.IsReset)
		}

	case protocol.PassData:
		next, err = game.ApplyPass(h.state, peerID, h.deadline())

	case protocol.LeaveData:
		if p.ID != "" && p.ID != peerID {
			err = fmt.Errorf("leave claims id %s", p.ID)
			break
		}
		next, err = game.Leave(h.state, peerID, h.deadline())

	default:
		err = fmt.Errorf("%s is not a request", msg.Type)
	}

	if err != nil {
		h.logger.Debug("Dropped request", "peer", peerID, "type", msg.Type, "reason", err)
		return
	}

	h.logger.Info("Applied request", "peer", peerID, "type", msg.Type)
	h.commit(next)
}

// PeerConnected sends the new participant the current table
func (h *Host) PeerConnected(peerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.peers[peerID] = true
	if !h.closed {
		h.sendView(peerID)
	}
}

// PeerDisconnected treats a lost connection as the participant leaving
func (h *Host) PeerDisconnected(peerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.peers, peerID)
	if h.closed || h.state.Seat(peerID) < 0 {
		return
	}

	next, err := game.Leave(h.state, peerID, h.deadline())
	if err != nil {
		h.logger.Warn("Failed to remove disconnected player", "peer", peerID, "error", err)
		return
	}
	h.logger.Info("Player disconnected", "peer", peerID)
	h.commit(next)
}

// StartRound deals a new round from the lobby or after a round has ended
func (h *Host) StartRound() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}

	next, opener, err := game.StartRound(h.state, h.rng, h.settings.MinPlayers)
	if err != nil {
		return err
	}
	h.opener = opener
	h.logger.Info("Starting round", "round", next.Round, "players", len(next.Players), "opener", opener)
	h.commit(next)
	return nil
}

// OpenLobby returns a finished table to the lobby so seats can change
// before the next round.
func (h *Host) OpenLobby() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}

	next, err := game.ReturnToLobby(h.state)
	if err != nil {
		return err
	}
	h.logger.Info("Reopening lobby", "players", len(next.Players))
	h.commit(next)
	return nil
}

// Play plays cards from the hosting participant's hand. Unlike remote
// requests, the reason for a refusal is returned.
func (h *Host) Play(cardIDs []string) (rules.Verdict, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.checkLocal(); err != nil {
		return rules.Verdict{}, err
	}

	next, verdict, err := game.ApplyPlay(h.state, h.id, cardIDs, h.deadline())
	if err != nil {
		return verdict, err
	}
	h.commit(next)
	return verdict, nil
}

// Pass passes the hosting participant's turn
func (h *Host) Pass() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.checkLocal(); err != nil {
		return err
	}

	next, err := game.ApplyPass(h.state, h.id, h.deadline())
	if err != nil {
		return err
	}
	h.commit(next)
	return nil
}

// AddBot seats a bot in the lobby and returns its id. An empty name picks
// one.
func (h *Host) AddBot(name string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return "", ErrClosed
	}

	if name == "" {
		bots := 0
		for _, p := range h.state.Players {
			if p.IsBot {
				bots++
			}
		}
		name = fmt.Sprintf("Bot %d", bots+1)
	}
	id := "bot-" + uuid.NewString()[:8]

	next, err := game.Join(h.state, game.Player{ID: id, Name: name, IsBot: true}, h.settings.MaxPlayers)
	if err != nil {
		return "", err
	}
	h.logger.Info("Added bot", "id", id, "name", name)
	h.commit(next)
	return id, nil
}

// RemoveBot takes a bot out of the lobby
func (h *Host) RemoveBot(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if h.state.Status != game.StatusLobby {
		return game.ErrRosterLocked
	}

	p := h.state.Player(id)
	if p == nil {
		return game.ErrUnknownPlayer
	}
	if !p.IsBot {
		return ErrNotBot
	}

	next, err := game.Leave(h.state, id, h.deadline())
	if err != nil {
		return err
	}
	h.logger.Info("Removed bot", "id", id)
	h.commit(next)
	return nil
}

func (h *Host) checkLocal() error {
	if h.closed {
		return ErrClosed
	}
	if h.id == "" {
		return ErrNoSeat
	}
	return nil
}

func (h *Host) deadline() time.Time {
	return h.clock.Now().Add(h.settings.TurnLimit)
}

// commit installs next as the current snapshot, publishes it and re-arms
// the timers it calls for. Callers hold h.mu.
func (h *Host) commit(next *game.GameState) {
	prev := h.state
	next.Version = prev.Version + 1
	h.state = next

	h.publish()
	h.schedule(prev)
}

func (h *Host) publish() {
	for peerID := range h.peers {
		h.sendView(peerID)
	}
	if h.onUpdate != nil {
		h.onUpdate(h.state.ViewFor(h.id))
	}
}

func (h *Host) sendView(peerID string) {
	if h.transport == nil {
		return
	}
	msg, err := protocol.GameStateUpdate(h.state.ViewFor(peerID))
	if err != nil {
		h.logger.Error("Failed to encode snapshot", "error", err)
		return
	}
	if err := h.transport.SendTo(peerID, msg); err != nil {
		h.logger.Warn("Failed to send snapshot", "peer", peerID, "error", err)
	}
}

// schedule arms the stage timer when the round moves into a timed stage and
// the bot timer whenever a bot is to act. Each timer re-checks the state it
// was armed for before acting.
func (h *Host) schedule(prev *game.GameState) {
	s := h.state

	if s.Status != prev.Status || s.Round != prev.Round {
		h.stopStage()
		round, status := s.Round, s.Status
		switch status {
		case game.StatusShuffling:
			h.stageTimer = h.clock.AfterFunc(h.settings.ShuffleDelay, func() { h.advanceStage(round, status) }, "stage")
		case game.StatusDealing:
			h.stageTimer = h.clock.AfterFunc(h.settings.DealDelay, func() { h.advanceStage(round, status) }, "stage")
		}
	}

	// A finished table too small for another round goes back to the lobby
	// once the results have been shown.
	if s.Status == game.StatusGameOver && len(s.Players) < h.settings.MinPlayers && h.stageTimer == nil {
		round := s.Round
		h.stageTimer = h.clock.AfterFunc(h.settings.ShuffleDelay, func() { h.advanceStage(round, game.StatusGameOver) }, "stage")
	}

	h.stopBot()
	if s.Status != game.StatusPlaying {
		return
	}
	if cur := s.CurrentPlayer(); cur != nil && cur.IsBot {
		version, id := s.Version, cur.ID
		h.botTimer = h.clock.AfterFunc(h.bot.Think(), func() { h.botTurn(version, id) }, "bot")
	}
}

func (h *Host) stopStage() {
	if h.stageTimer != nil {
		h.stageTimer.Stop()
		h.stageTimer = nil
	}
}

func (h *Host) stopBot() {
	if h.botTimer != nil {
		h.botTimer.Stop()
		h.botTimer = nil
	}
}

func (h *Host) advanceStage(round int, from game.Status) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.state
	if h.closed || s.Round != round || s.Status != from {
		return
	}

	var (
		next *game.GameState
		err  error
	)
	switch from {
	case game.StatusGameOver:
		next, err = game.ReturnToLobby(s)
	case game.StatusShuffling:
		next, err = game.BeginDealing(s)
	case game.StatusDealing:
		next, err = game.BeginPlay(s, h.opener, h.deadline())
	}
	if err != nil {
		h.logger.Error("Failed to advance round", "round", round, "from", from, "error", err)
		return
	}
	h.commit(next)
}

func (h *Host) botTurn(version uint64, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.state
	if h.closed || s.Version != version || s.CurrentPlayerID != id {
		return
	}
	p := s.Player(id)

	var (
		next *game.GameState
		err  error
	)
	d := h.bot.Decide(id, p.Hand, s.Pile)
	if !d.Pass() {
		next, _, err = game.ApplyPlay(s, id, deck.IDs(d.Cards), h.deadline())
	}
	if d.Pass() || err != nil {
		if err != nil {
			h.logger.Warn("Bot move refused, passing", "player", id, "error", err)
		}
		next, err = game.ApplyPass(s, id, h.deadline())
	}
	if err != nil {
		h.logger.Error("Bot could not act", "player", id, "error", err)
		return
	}
	h.commit(next)
}

func (h *Host) checkDeadline() {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.state
	if h.closed || s.Status != game.StatusPlaying || s.TurnDeadline.IsZero() {
		return
	}
	if h.clock.Now().Before(s.TurnDeadline) {
		return
	}

	id := s.CurrentPlayerID
	next, err := game.ApplyPass(s, id, h.deadline())
	if err != nil {
		h.logger.Error("Failed to pass for timed out player", "player", id, "error", err)
		return
	}
	h.logger.Info("Turn timed out", "player", id)
	h.commit(next)
}
