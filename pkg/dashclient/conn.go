package dashclient

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

// ConnState is the lifecycle state of the push channel.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Conn is one live websocket session.
type Conn interface {
	// ReadMessage blocks for the next frame. It returns *websocket.CloseError
	// when the peer closed the session with a close frame.
	ReadMessage() ([]byte, error)
	// Close sends a close frame with the given code and tears the session down.
	Close(code int, reason string) error
}

// Dialer opens push sessions. The default implementation dials with
// gorilla/websocket; tests substitute their own.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

type gorillaConn struct {
	conn *websocket.Conn
}

func (c *gorillaConn) ReadMessage() ([]byte, error) {
	_, payload, err := c.conn.ReadMessage()
	return payload, err
}

func (c *gorillaConn) Close(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(3 * time.Second)
	writeErr := c.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	closeErr := c.conn.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

type gorillaDialer struct{}

func (gorillaDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &gorillaConn{conn: conn}, nil
}

// Connect opens the push channel. It is idempotent: while the client is
// connecting or connected, further calls do nothing. A session that drops for
// any reason other than a deliberate Disconnect reconnects after the
// configured delay, indefinitely unless MaxRetries caps it.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateDisconnected {
		return
	}
	c.deliberate = false
	c.retries = 0
	c.startLocked(ctx)
}

// startLocked transitions to connecting and launches the session goroutine.
// Callers hold c.mu.
func (c *Client) startLocked(ctx context.Context) {
	c.state = StateConnecting
	generation := c.generation
	go c.session(ctx, generation)
}

func (c *Client) session(ctx context.Context, generation uint64) {
	conn, err := c.options.Dialer.Dial(ctx, c.WebsocketURL())
	if err != nil {
		c.logger.Warn("websocket dial failed", "error", err)
		c.sessionEnded(ctx, generation, false)
		return
	}

	c.mu.Lock()
	if c.generation != generation || c.deliberate {
		c.mu.Unlock()
		_ = conn.Close(websocket.CloseNormalClosure, "client closing")
		return
	}
	c.state = StateConnected
	c.retries = 0
	c.conn = conn
	c.mu.Unlock()

	c.logger.Info("websocket connected", "url", c.WebsocketURL())
	c.startResync(ctx, generation)

	deliberateClose := c.readLoop(conn)
	c.sessionEnded(ctx, generation, deliberateClose)
}

// readLoop pumps frames until the session ends, recording how it ended. It
// reports whether the peer sent a normal closure, which must not trigger a
// reconnect.
func (c *Client) readLoop(conn Conn) bool {
	for {
		payload, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				c.logger.Info("websocket closed",
					"code", closeErr.Code, "reason", closeErr.Text)
				return closeErr.Code == websocket.CloseNormalClosure
			}
			c.logger.Warn("websocket read failed", "error", err)
			return false
		}
		c.dispatch(payload)
	}
}

// dispatch decodes one frame and routes it. Malformed frames are logged and
// dropped; they never end the session.
func (c *Client) dispatch(payload []byte) {
	event, err := decodeEvent(payload)
	if err != nil {
		c.logger.Warn("dropping malformed push event", "error", err)
		return
	}

	switch e := event.(type) {
	case StatusUpdate:
		applied := c.cache.Apply(e)
		if !applied {
			c.logger.Debug("status update for unknown document", "document_id", e.DocumentID)
		}
		c.notifyUpdate(e)
	case Unrecognized:
		c.logger.Debug("ignoring unrecognized push event", "type", e.Type)
	}
}

func (c *Client) notifyUpdate(update StatusUpdate) {
	c.mu.Lock()
	handler := c.onUpdate
	c.mu.Unlock()
	if handler != nil {
		handler(update)
	}
}

// sessionEnded records the drop and, unless the closure was deliberate,
// schedules the next attempt.
func (c *Client) sessionEnded(ctx context.Context, generation uint64, deliberateClose bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return
	}
	c.state = StateDisconnected
	c.conn = nil

	if deliberateClose || c.deliberate || ctx.Err() != nil {
		return
	}
	if c.options.MaxRetries > 0 && c.retries >= c.options.MaxRetries {
		c.logger.Warn("websocket retry budget exhausted", "retries", c.retries)
		return
	}
	c.retries++
	c.logger.Info("websocket reconnect scheduled",
		"delay", c.options.ReconnectDelay, "attempt", c.retries)

	c.retryTimer = time.AfterFunc(c.options.ReconnectDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.deliberate || c.generation != generation || c.state != StateDisconnected {
			return
		}
		c.startLocked(ctx)
	})
}

// Disconnect deliberately closes the push channel: the pending reconnect, if
// any, is cancelled, the session closes with a normal closure and no new
// attempt is scheduled. A later Connect starts over.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.deliberate = true
	c.generation++
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	if c.resyncStop != nil {
		close(c.resyncStop)
		c.resyncStop = nil
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.CloseNormalClosure, "client closing")
	}
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// startResync periodically refetches the document list while the session
// lives, reconciling anything a lost push would have left stale.
func (c *Client) startResync(ctx context.Context, generation uint64) {
	if c.options.ResyncInterval <= 0 {
		return
	}

	stop := make(chan struct{})
	c.mu.Lock()
	if c.resyncStop != nil {
		close(c.resyncStop)
	}
	c.resyncStop = stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.options.ResyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				live := c.generation == generation && c.state == StateConnected
				c.mu.Unlock()
				if !live {
					return
				}
				if err := c.Resync(ctx); err != nil {
					c.logger.Warn("document resync failed", "error", err)
				}
			}
		}
	}()
}
