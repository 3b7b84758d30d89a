package server

import (
	"log/slog"

	"threadline/internal/middleware"
	"threadline/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketUpgrade rejects plain HTTP requests to the websocket endpoint.
func (s *Server) WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// WebSocketHandler streams the caller's notifications and broadcast events.
// @Summary Notification stream
// @Description Upgrade to a websocket carrying {type, payload} events. Pass the access token as ?token=.
// @Tags realtime
// @Param token query string true "Access token"
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) WebSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("WebSocket registration rejected",
				slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		middleware.Logger.Debug("WebSocket connected", slog.Uint64("user_id", uint64(userID)))

		if welcome, err := (notifications.Event{Type: "connected", Payload: fiber.Map{"user_id": userID}}).Encode(); err == nil {
			client.TrySend([]byte(welcome))
		}

		client.Serve()
	})
}
