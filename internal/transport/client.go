package transport

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/tycoon/internal/protocol"
)

// Client is a participant's websocket connection to a Hub
type Client struct {
	conn      *websocket.Conn
	send      chan *protocol.Message
	receiver  Receiver
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Dial connects to the hub at hostURL as peerID. hostURL may use http, https,
// ws or wss; the /ws path is added. Messages from the host are delivered to
// r in order on a single goroutine.
func Dial(ctx context.Context, hostURL, peerID string, r Receiver, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(hostURL)
	if err != nil {
		return nil, fmt.Errorf("invalid host URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "":
		u, err = url.Parse("ws://" + hostURL)
		if err != nil {
			return nil, fmt.Errorf("invalid host URL: %w", err)
		}
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"id": {peerID}}.Encode()

	logger = logger.WithPrefix("client")
	logger.Info("Connecting to host", "url", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:     conn,
		send:     make(chan *protocol.Message, sendBuffer),
		receiver: r,
		logger:   logger,
		ctx:      cctx,
		cancel:   cancel,
	}

	go c.readPump()
	go c.writePump()

	logger.Info("Connected to host")
	return c, nil
}

// Send queues msg for the host
func (c *Client) Send(msg *protocol.Message) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrClosed
	default:
		return ErrBufferFull
	}
}

// Close disconnects from the host
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		err = c.conn.Close()
		c.logger.Info("Disconnected from host")
	})
	return err
}

// Done is closed once the connection has ended for any reason
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *Client) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPingHandler(func(data string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.receiver.Receive(&msg)
	}
}

func (c *Client) writePump() {
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				_ = c.Close()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}
