// Package realtime fans document status updates out to connected dashboard
// sessions. Updates arrive over Redis pub/sub from the worker and leave over
// one websocket per session; a user may hold several sessions at once.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Subscriber is the upstream feed of rendered update payloads.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(userID int64, payload []byte)) error
}

// Metrics receives connection lifecycle and push counters.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	RecordPushedEvent(service, eventType string)
}

type Hub struct {
	subscriber Subscriber
	metrics    Metrics
	logger     *slog.Logger

	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	closed  bool
}

func NewHub(subscriber Subscriber, metrics Metrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscriber: subscriber,
		metrics:    metrics,
		logger:     logger,
		clients:    map[int64]map[*Client]struct{}{},
	}
}

// Run consumes the upstream feed until ctx ends, then tells every session to
// go away for good with a normal closure.
func (h *Hub) Run(ctx context.Context) error {
	err := h.subscriber.Subscribe(ctx, h.broadcast)
	h.shutdown()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (h *Hub) broadcast(userID int64, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
			h.metrics.RecordPushedEvent("api", "document_update")
		default:
			// A session that cannot drain its buffer is dropped rather than
			// allowed to stall everyone behind the lock.
			h.logger.Warn("dropping slow websocket session", "user_id", userID)
			client.closeSlow()
		}
	}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	sessions, ok := h.clients[c.userID]
	if !ok {
		sessions = map[*Client]struct{}{}
		h.clients[c.userID] = sessions
	}
	sessions[c] = struct{}{}
	h.metrics.ConnectionOpened()
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sessions, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, present := sessions[c]; !present {
		return
	}
	delete(sessions, c)
	if len(sessions) == 0 {
		delete(h.clients, c.userID)
	}
	h.metrics.ConnectionClosed()
	close(c.send)
}

// shutdown closes every session with CloseNormalClosure so clients treat the
// disconnect as deliberate and do not reconnect.
func (h *Hub) shutdown() {
	h.mu.Lock()
	var all []*Client
	for _, sessions := range h.clients {
		for client := range sessions {
			all = append(all, client)
		}
	}
	h.clients = map[int64]map[*Client]struct{}{}
	h.closed = true
	for range all {
		h.metrics.ConnectionClosed()
	}
	h.mu.Unlock()

	deadline := time.Now().Add(writeWait)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down")
	for _, client := range all {
		_ = client.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		close(client.send)
	}
}

// Client is one websocket session owned by the hub.
type Client struct {
	hub    *Hub
	userID int64
	conn   *websocket.Conn

	send chan []byte

	slowOnce sync.Once
}

// Serve attaches conn to the hub and blocks until the session ends.
func (h *Hub) Serve(userID int64, conn *websocket.Conn) {
	client := &Client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 32),
	}
	if !h.register(client) {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

func (c *Client) closeSlow() {
	c.slowOnce.Do(func() {
		_ = c.conn.Close()
	})
}

// readPump discards inbound frames; the channel is push-only. Its real job is
// answering pings and noticing the peer going away.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.logger.Debug("websocket read ended", "user_id", c.userID, "error", err)
			}
			return
		}
	}
}

// writePump forwards queued updates one frame per event. Events are never
// coalesced: each frame must stay an independently decodable JSON object.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
