package notifications

import (
	"log/slog"
	"sync"
	"time"

	"threadline/internal/middleware"
	"threadline/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	pingInterval = idleTimeout * 9 / 10

	// Inbound frames are pings, pongs and closes only.
	maxInboundFrame = 1024

	sendBuffer = 64
)

var dropNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// Conn is the subset of *websocket.Conn a Client drives.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

type registry interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client is one websocket connection of a signed-in user. Events are queued
// on a bounded buffer and written by a single goroutine.
type Client struct {
	hub    registry
	conn   Conn
	userID uint
	send   chan []byte

	mu         sync.RWMutex
	closed     bool
	closeFrame []byte
}

func newClient(hub registry, conn Conn, userID uint) *Client {
	return &Client{hub: hub, conn: conn, userID: userID, send: make(chan []byte, sendBuffer)}
}

// UserID is the account the connection was authenticated as.
func (c *Client) UserID() uint { return c.userID }

// Serve runs the connection until either side goes away. It blocks on the
// read side and unregisters the client on return.
func (c *Client) Serve() {
	done := make(chan struct{})
	go func() {
		c.writeLoop()
		close(done)
	}()
	c.readLoop()
	c.hub.UnregisterClient(c)
	<-done
}

func (c *Client) readLoop() {
	c.conn.SetReadLimit(maxInboundFrame)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(idleTimeout)) }
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			middleware.Logger.Debug("websocket read error",
				slog.Uint64("user_id", uint64(c.userID)), slog.String("error", err.Error()))
		}
		return
	}
}

// writeLoop drains send until the hub closes it, pinging while idle.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer func() { _ = c.conn.Close() }()

	for {
		var (
			kind = websocket.PingMessage
			data []byte
		)
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				_ = c.conn.WriteMessage(websocket.CloseMessage, c.finalFrame())
				return
			}
			kind, data = websocket.TextMessage, msg
		case <-ticker.C:
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(kind, data); err != nil {
			return
		}
	}
}

// TrySend queues message without blocking. A full buffer drops the message
// and, when there is room, queues a drop notice so the client can re-fetch.
func (c *Client) TrySend(message []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "closed").Inc()
		return
	}

	select {
	case c.send <- message:
		return
	default:
	}
	observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "full").Inc()
	select {
	case c.send <- dropNotice:
	default:
	}
}

func (c *Client) finalFrame() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closeFrame
}

// closeSend stops the client; the write loop then sends frame as its close
// message. It is idempotent and TrySend after it is a counted no-op.
func (c *Client) closeSend(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeFrame = frame
	close(c.send)
}
