// Package transport moves protocol messages between the host and the other
// participants. The host sees a Transport for sending and implements Handler
// for receiving; a participant holds a Conn to the host and implements
// Receiver. Delivery is reliable and ordered per connection. A dropped
// connection surfaces as PeerDisconnected, never as a message.
package transport

import (
	"errors"

	"github.com/lox/tycoon/internal/protocol"
)

var (
	ErrUnknownPeer = errors.New("peer not connected")
	ErrPeerExists  = errors.New("peer already connected")
	ErrClosed      = errors.New("connection closed")
	ErrBufferFull  = errors.New("send buffer full")
	ErrNoHost      = errors.New("no host is serving")
)

// Transport is the host's view of the network
type Transport interface {
	SendTo(peerID string, msg *protocol.Message) error
	Broadcast(msg *protocol.Message) error
}

// Handler receives traffic arriving at the host
type Handler interface {
	HandleMessage(peerID string, msg *protocol.Message)
	PeerConnected(peerID string)
	PeerDisconnected(peerID string)
}

// Receiver receives traffic arriving at a participant
type Receiver interface {
	Receive(msg *protocol.Message)
}

// Conn is a participant's link to the host
type Conn interface {
	Send(msg *protocol.Message) error
	Close() error
}

// Send buffer per direction per connection
const sendBuffer = 256
