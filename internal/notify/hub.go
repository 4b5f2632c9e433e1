package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	clientSendSize = 64
)

// Hub tracks connected WebSocket clients and broadcasts events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *zap.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With(zap.String("component", "hub")),
	}
}

// Viewer identifies who is on the other end of a connection. The zero value
// is an anonymous visitor.
type Viewer struct {
	UserID int64
	Admin  bool
}

// CanSee reports whether event may be pushed to v. Category changes are
// public. Order changes reach admins and the buyer. Everything else,
// user changes included, is for admins only.
func (v Viewer) CanSee(event domain.Event) bool {
	kind, _, _ := strings.Cut(string(event.Type), ".")
	switch kind {
	case "category":
		return true
	case "order":
		return v.Admin || (v.UserID != 0 && v.UserID == event.OwnerID)
	default:
		return v.Admin
	}
}

// Client is one WebSocket connection. All writes go through its send buffer
// so that a single goroutine owns the connection's writer.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	viewer Viewer
	send   chan []byte
	once   sync.Once
}

// Register adds conn to the hub on behalf of viewer and starts its writer.
func (h *Hub) Register(conn *websocket.Conn, viewer Viewer) *Client {
	c := &Client{hub: h, conn: conn, viewer: viewer, send: make(chan []byte, clientSendSize)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("WebSocket client connected",
		zap.Int64("user_id", viewer.UserID),
		zap.Int("clients", n),
	)
	go c.writePump()
	return c
}

// Unregister removes c and closes its connection.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.close()
		h.logger.Info("WebSocket client disconnected", zap.Int("clients", n))
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Deliver pushes event to every client whose viewer may see it. Clients whose
// buffer is full miss the event.
func (h *Hub) Deliver(_ context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.viewer.CanSee(event) {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Debug("Client buffer full, skipping event", zap.String("event_type", string(event.Type)))
		}
	}
	return nil
}

// Send queues v as a JSON text message to this client only.
func (c *Client) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	select {
	case c.send <- data:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// ReadJSON blocks for the next client message.
func (c *Client) ReadJSON(v any) error {
	return c.conn.ReadJSON(v)
}

// PrepareRead configures read limits and the pong handler.
func (c *Client) PrepareRead(limit int64) {
	c.conn.SetReadLimit(limit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.hub.logger.Debug("Failed to write to client", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
