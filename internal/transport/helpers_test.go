package transport

import (
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/tycoon/internal/protocol"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// recorder is a Handler and Receiver that remembers what it saw
type recorder struct {
	mu     sync.Mutex
	events []string
	msgs   []*protocol.Message
}

func (r *recorder) HandleMessage(peerID string, msg *protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, peerID+":"+msg.Type.String())
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) PeerConnected(peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, peerID+":connected")
}

func (r *recorder) PeerDisconnected(peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, peerID+":disconnected")
}

func (r *recorder) Receive(msg *protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, msg.Type.String())
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) Messages() []*protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*protocol.Message(nil), r.msgs...)
}

func message(t *testing.T, build func() (*protocol.Message, error)) *protocol.Message {
	t.Helper()
	msg, err := build()
	require.NoError(t, err)
	return msg
}
