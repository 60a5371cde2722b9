package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/tycoon/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

// Hub is the host side of the websocket transport. Participants connect to
// /ws?id=<peer id>; each id may hold one connection at a time.
type Hub struct {
	upgrader    websocket.Upgrader
	handler     Handler
	connections map[string]*connection
	logger      *log.Logger
	mu          sync.RWMutex
}

// NewHub creates a hub delivering inbound traffic to handler. handler may be
// nil if Serve is called before the hub starts listening.
func NewHub(handler Handler, logger *log.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// Peers on a local network connect from anywhere
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		handler:     handler,
		connections: make(map[string]*connection),
		logger:      logger.WithPrefix("hub"),
	}
}

// Serve installs the handler inbound traffic is delivered to
func (h *Hub) Serve(handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

// ServeHTTP routes websocket upgrades and health checks
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ws":
		h.handleWebSocket(w, r)
	case "/health":
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "OK")
	default:
		http.NotFound(w, r)
	}
}

// ListenAndServe serves the hub on addr until ctx is cancelled
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: h}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("Listening for players", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close drops every connection
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*connection, 0, len(h.connections))
	for _, c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

// SendTo sends msg to one connected participant
func (h *Hub) SendTo(peerID string, msg *protocol.Message) error {
	h.mu.RLock()
	c, ok := h.connections[peerID]
	h.mu.RUnlock()
	if !ok {
		return ErrUnknownPeer
	}
	return c.SendMessage(msg)
}

// Broadcast sends msg to every connected participant
func (h *Hub) Broadcast(msg *protocol.Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var firstErr error
	for id, c := range h.connections {
		if err := c.SendMessage(msg); err != nil {
			h.logger.Error("Failed to send message to peer", "error", err, "peer", id)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Peers returns the ids of connected participants
func (h *Hub) Peers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.connections))
	for id := range h.connections {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	peerID := r.URL.Query().Get("id")
	if peerID == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	h.mu.RLock()
	_, taken := h.connections[peerID]
	handler := h.handler
	h.mu.RUnlock()
	if handler == nil {
		http.Error(w, "no game hosted", http.StatusServiceUnavailable)
		return
	}
	if taken {
		http.Error(w, "id already connected", http.StatusConflict)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	c := newConnection(peerID, ws, h.logger)

	h.mu.Lock()
	if _, taken := h.connections[peerID]; taken {
		h.mu.Unlock()
		_ = c.Close()
		return
	}
	h.connections[peerID] = c
	total := len(h.connections)
	h.mu.Unlock()

	h.logger.Info("Peer connected", "peer", peerID, "total", total)
	handler.PeerConnected(peerID)

	go c.writePump()
	go func() {
		c.readPump(func(msg *protocol.Message) {
			handler.HandleMessage(peerID, msg)
		})
		h.unregister(c, handler)
	}()
}

func (h *Hub) unregister(c *connection, handler Handler) {
	h.mu.Lock()
	if h.connections[c.peerID] == c {
		delete(h.connections, c.peerID)
	}
	total := len(h.connections)
	h.mu.Unlock()

	_ = c.Close()
	h.logger.Info("Peer disconnected", "peer", c.peerID, "total", total)
	handler.PeerDisconnected(c.peerID)
}

// connection is one websocket with its outbound queue
type connection struct {
	peerID    string
	conn      *websocket.Conn
	send      chan *protocol.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newConnection(peerID string, conn *websocket.Conn, logger *log.Logger) *connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &connection{
		peerID: peerID,
		conn:   conn,
		send:   make(chan *protocol.Message, sendBuffer),
		logger: logger.With("peer", peerID),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Close closes the connection
func (c *connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues msg for the write pump
func (c *connection) SendMessage(msg *protocol.Message) error {
	if c.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrBufferFull
	}
}

// readPump feeds inbound messages to deliver until the connection fails
func (c *connection) readPump(deliver func(*protocol.Message)) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		deliver(&msg)
	}
}

// writePump drains the send queue and keeps the connection alive
func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
