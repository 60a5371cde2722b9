package transport

import (
	"testing"
	"time"

	"github.com/lox/tycoon/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkDeliversInOrder(t *testing.T) {
	host := &recorder{}
	net := NewNetwork(quietLogger())
	net.Serve(host)

	peer := &recorder{}
	link, err := net.Connect("p1", peer)
	require.NoError(t, err)

	require.NoError(t, link.Send(message(t, func() (*protocol.Message, error) { return protocol.Join("p1", "Ana") })))
	require.NoError(t, link.Send(message(t, protocol.Pass)))
	require.NoError(t, link.Close())

	assert.Eventually(t, func() bool { return len(host.Events()) == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"p1:connected", "p1:JOIN", "p1:PASS", "p1:disconnected"}, host.Events())

	payload, err := host.Messages()[0].Payload()
	require.NoError(t, err)
	assert.Equal(t, protocol.JoinData{ID: "p1", Name: "Ana"}, payload)
}

func TestNetworkSendTo(t *testing.T) {
	net := NewNetwork(quietLogger())
	net.Serve(&recorder{})

	a, b := &recorder{}, &recorder{}
	_, err := net.Connect("a", a)
	require.NoError(t, err)
	_, err = net.Connect("b", b)
	require.NoError(t, err)

	require.NoError(t, net.SendTo("a", message(t, protocol.Pass)))
	require.NoError(t, net.Broadcast(message(t, func() (*protocol.Message, error) { return protocol.Leave("x") })))

	assert.Eventually(t, func() bool { return len(a.Events()) == 2 && len(b.Events()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"PASS", "LEAVE"}, a.Events())
	assert.Equal(t, []string{"LEAVE"}, b.Events())
	assert.ElementsMatch(t, []string{"a", "b"}, net.Peers())

	assert.ErrorIs(t, net.SendTo("z", message(t, protocol.Pass)), ErrUnknownPeer)
}

func TestNetworkConnectErrors(t *testing.T) {
	net := NewNetwork(quietLogger())
	_, err := net.Connect("a", &recorder{})
	assert.ErrorIs(t, err, ErrNoHost)

	net.Serve(&recorder{})
	_, err = net.Connect("a", &recorder{})
	require.NoError(t, err)
	_, err = net.Connect("a", &recorder{})
	assert.ErrorIs(t, err, ErrPeerExists)
}

func TestLinkClosed(t *testing.T) {
	host := &recorder{}
	net := NewNetwork(quietLogger())
	net.Serve(host)

	link, err := net.Connect("a", &recorder{})
	require.NoError(t, err)
	net.Close()

	<-link.Done()
	assert.ErrorIs(t, link.Send(message(t, protocol.Pass)), ErrClosed)
	assert.ErrorIs(t, net.SendTo("a", message(t, protocol.Pass)), ErrUnknownPeer)
	assert.Eventually(t, func() bool {
		ev := host.Events()
		return len(ev) == 2 && ev[1] == "a:disconnected"
	}, time.Second, 5*time.Millisecond)

	// The id is free again.
	_, err = net.Connect("a", &recorder{})
	assert.NoError(t, err)
}
