package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"threadline/internal/middleware"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
)

// Hub maps user ids to their open websocket clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register adds a connection for userID, enforcing per-user and global limits.
func (h *Hub) Register(userID uint, conn Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserFull
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	middleware.ActiveWebSockets.Inc()
	return client, nil
}

func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.conns[client.userID]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
		middleware.ActiveWebSockets.Dec()
		client.closeSend(websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
	if len(m) == 0 {
		delete(h.conns, client.userID)
	}
}

// Deliver sends message to all connections for userID.
func (h *Hub) Deliver(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.conns[userID] {
		c.TrySend(data)
	}
}

// DeliverAll sends message to every connected client.
func (h *Hub) DeliverAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// ConnectionCount returns the number of open connections for userID.
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// StartWiring forwards messages from t to the matching connections until ctx is done.
func (h *Hub) StartWiring(ctx context.Context, t Transport) error {
	err := t.Subscribe(ctx, func(userID uint, broadcast bool, payload string) {
		if broadcast {
			h.DeliverAll(payload)
			return
		}
		h.Deliver(userID, payload)
	})
	if err == nil {
		middleware.Logger.Info("Notification hub wired", slog.String("transport", t.Name()))
	}
	return err
}

// Shutdown closes every connection with a going-away frame.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	goingAway := websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")
	for userID, userConns := range h.conns {
		for client := range userConns {
			client.closeSend(goingAway)
			middleware.ActiveWebSockets.Dec()
		}
		middleware.Logger.Debug("Closed websocket connections",
			slog.Uint64("user_id", uint64(userID)), slog.Int("count", len(userConns)))
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
