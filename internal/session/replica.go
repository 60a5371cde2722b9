package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lox/tycoon/internal/game"
	"github.com/lox/tycoon/internal/protocol"
	"github.com/lox/tycoon/internal/rules"
	"github.com/lox/tycoon/internal/transport"
)

// ErrNotConnected is returned when a replica has no link to the host
var ErrNotConnected = errors.New("not connected to host")

// Replica is a participant's copy of the table. It never edits the
// snapshot: it replaces it wholesale whenever the host sends a newer one,
// and turns local actions into requests.
type Replica struct {
	id       string
	name     string
	logger   *log.Logger
	onUpdate func(*game.GameState)

	mu    sync.RWMutex
	conn  transport.Conn
	state *game.GameState
}

// NewReplica creates a replica for participant id. onUpdate, if set, is
// called with each newly accepted snapshot.
func NewReplica(id, name string, logger *log.Logger, onUpdate func(*game.GameState)) *Replica {
	return &Replica{
		id:       id,
		name:     name,
		logger:   logger.WithPrefix("replica"),
		onUpdate: onUpdate,
	}
}

// Attach sets the connection requests are sent on
func (r *Replica) Attach(conn transport.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn = conn
}

// ID returns the participant id
func (r *Replica) ID() string {
	return r.id
}

// Receive accepts a snapshot from the host. Snapshots that are not newer
// than the one held are ignored.
func (r *Replica) Receive(msg *protocol.Message) {
	if msg.Type != protocol.TypeGameStateUpdate {
		r.logger.Debug("Ignoring message", "type", msg.Type)
		return
	}
	payload, err := msg.Payload()
	if err != nil {
		r.logger.Warn("Dropping bad snapshot", "error", err)
		return
	}
	next := payload.(*game.GameState)

	r.mu.Lock()
	if r.state != nil && next.Version <= r.state.Version {
		r.mu.Unlock()
		r.logger.Debug("Ignoring stale snapshot", "version", next.Version)
		return
	}
	r.state = next
	r.mu.Unlock()

	if r.onUpdate != nil {
		r.onUpdate(next.Clone())
	}
}

// State returns the latest snapshot, or nil before the first one arrives
func (r *Replica) State() *game.GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state == nil {
		return nil
	}
	return r.state.Clone()
}

// Me returns this participant's seat in the latest snapshot, or nil
func (r *Replica) Me() *game.Player {
	s := r.State()
	if s == nil {
		return nil
	}
	return s.Player(r.id)
}

// CanAct reports whether it is this participant's turn in a round in play
func (r *Replica) CanAct() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.canAct()
}

func (r *Replica) canAct() bool {
	s := r.state
	return s != nil && s.Status == game.StatusPlaying && s.CurrentPlayerID == r.id
}

// Join asks the host for a seat
func (r *Replica) Join() error {
	msg, err := protocol.Join(r.id, r.name)
	if err != nil {
		return err
	}
	return r.send(msg)
}

// Leave tells the host this participant is going
func (r *Replica) Leave() error {
	msg, err := protocol.Leave(r.id)
	if err != nil {
		return err
	}
	return r.send(msg)
}

// Play checks the move against the latest snapshot and sends it if the
// rules allow it. A refused move returns the verdict and is never sent.
func (r *Replica) Play(cardIDs []string) (rules.Verdict, error) {
	r.mu.RLock()
	if !r.canAct() {
		r.mu.RUnlock()
		return rules.Verdict{}, game.ErrNotYourTurn
	}
	me := r.state.Player(r.id)
	cards, err := me.Cards(cardIDs)
	if err != nil {
		r.mu.RUnlock()
		return rules.Verdict{}, err
	}
	verdict := rules.Validate(cards, r.state.Pile.Clone(), len(me.Hand))
	r.mu.RUnlock()

	if !verdict.Valid {
		return verdict, fmt.Errorf("%w: %w", game.ErrIllegalMove, verdict.Err)
	}

	msg, err := protocol.PlayCards(cards, verdict.IsReset)
	if err != nil {
		return verdict, err
	}
	return verdict, r.send(msg)
}

// Pass sends a pass if it is this participant's turn
func (r *Replica) Pass() error {
	if !r.CanAct() {
		return game.ErrNotYourTurn
	}
	msg, err := protocol.Pass()
	if err != nil {
		return err
	}
	return r.send(msg)
}

func (r *Replica) send(msg *protocol.Message) error {
	r.mu.RLock()
	conn := r.conn
	r.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.Send(msg)
}
