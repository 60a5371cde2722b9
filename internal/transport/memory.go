package transport

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lox/tycoon/internal/protocol"
)

// Network is an in-process star network: one host and any number of
// participants. Messages are encoded and decoded on the way through so no
// memory is shared between endpoints, and each direction of each link is
// drained by its own goroutine so delivery order is preserved.
type Network struct {
	logger  *log.Logger
	mu      sync.RWMutex
	handler Handler
	links   map[string]*Link
}

// NewNetwork creates an empty network. Serve must be called before any
// participant connects.
func NewNetwork(logger *log.Logger) *Network {
	return &Network{
		logger: logger.WithPrefix("memnet"),
		links:  make(map[string]*Link),
	}
}

// Serve installs the host's handler
func (n *Network) Serve(h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handler = h
}

// Connect attaches a participant. Traffic from the host is delivered to r.
func (n *Network) Connect(peerID string, r Receiver) (*Link, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.handler == nil {
		return nil, ErrNoHost
	}
	if _, ok := n.links[peerID]; ok {
		return nil, ErrPeerExists
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Link{
		id:       peerID,
		network:  n,
		receiver: r,
		toPeer:   make(chan []byte, sendBuffer),
		toHost:   make(chan hostEvent, sendBuffer),
		ctx:      ctx,
		cancel:   cancel,
	}
	n.links[peerID] = l

	l.toHost <- hostEvent{kind: eventConnected}
	go l.hostPump(n.handler)
	go l.peerPump()

	n.logger.Debug("Peer connected", "peer", peerID, "total", len(n.links))
	return l, nil
}

// SendTo delivers msg to a single participant
func (n *Network) SendTo(peerID string, msg *protocol.Message) error {
	n.mu.RLock()
	l, ok := n.links[peerID]
	n.mu.RUnlock()
	if !ok {
		return ErrUnknownPeer
	}
	return l.deliver(msg)
}

// Broadcast delivers msg to every participant
func (n *Network) Broadcast(msg *protocol.Message) error {
	n.mu.RLock()
	links := make([]*Link, 0, len(n.links))
	for _, l := range n.links {
		links = append(links, l)
	}
	n.mu.RUnlock()

	var firstErr error
	for _, l := range links {
		if err := l.deliver(msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Peers returns the ids of connected participants
func (n *Network) Peers() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ids := make([]string, 0, len(n.links))
	for id := range n.links {
		ids = append(ids, id)
	}
	return ids
}

// Close disconnects every participant
func (n *Network) Close() {
	n.mu.RLock()
	links := make([]*Link, 0, len(n.links))
	for _, l := range n.links {
		links = append(links, l)
	}
	n.mu.RUnlock()

	for _, l := range links {
		_ = l.Close()
	}
}

type eventKind int

const (
	eventConnected eventKind = iota
	eventMessage
	eventDisconnected
)

type hostEvent struct {
	kind eventKind
	data []byte
}

// Link is one participant's connection in a Network
type Link struct {
	id        string
	network   *Network
	receiver  Receiver
	toPeer    chan []byte
	toHost    chan hostEvent
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Send delivers msg to the host
func (l *Link) Send(msg *protocol.Message) error {
	if l.ctx.Err() != nil {
		return ErrClosed
	}
	b, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case l.toHost <- hostEvent{kind: eventMessage, data: b}:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close drops the link. The host sees the disconnect after every message
// sent before it.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		l.network.mu.Lock()
		delete(l.network.links, l.id)
		l.network.mu.Unlock()

		l.cancel()
		select {
		case l.toHost <- hostEvent{kind: eventDisconnected}:
		default:
			go func() { l.toHost <- hostEvent{kind: eventDisconnected} }()
		}
	})
	return nil
}

// Done is closed once the link is closed
func (l *Link) Done() <-chan struct{} {
	return l.ctx.Done()
}

func (l *Link) deliver(msg *protocol.Message) error {
	if l.ctx.Err() != nil {
		return ErrClosed
	}
	b, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case l.toPeer <- b:
		return nil
	default:
		l.network.logger.Warn("Peer send buffer full, closing link", "peer", l.id)
		_ = l.Close()
		return ErrBufferFull
	}
}

func (l *Link) hostPump(h Handler) {
	for ev := range l.toHost {
		switch ev.kind {
		case eventConnected:
			h.PeerConnected(l.id)
		case eventMessage:
			msg, err := protocol.Unmarshal(ev.data)
			if err != nil {
				l.network.logger.Error("Dropping undecodable message", "peer", l.id, "error", err)
				continue
			}
			h.HandleMessage(l.id, msg)
		case eventDisconnected:
			h.PeerDisconnected(l.id)
			return
		}
	}
}

func (l *Link) peerPump() {
	for {
		select {
		case b := <-l.toPeer:
			msg, err := protocol.Unmarshal(b)
			if err != nil {
				l.network.logger.Error("Dropping undecodable message", "peer", l.id, "error", err)
				continue
			}
			l.receiver.Receive(msg)
		case <-l.ctx.Done():
			return
		}
	}
}
