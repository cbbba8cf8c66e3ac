package server

import (
	"geosocial/internal/middleware"
	"geosocial/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// websocketUpgrade rejects requests the notification socket cannot serve before
// the upgrade happens.
func (s *Server) websocketUpgrade(c *fiber.Ctx) error {
	if s.hub == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "Realtime notifications unavailable",
		})
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// WebsocketHandler handles GET /api/ws, pushing the caller's notifications
// (friend requests, comments, likes) as JSON text frames.
// Browsers cannot set headers on websocket requests, so the token may come as ?token=.
// @Summary Notification websocket
// @Description Upgrades to a websocket that receives events addressed to the caller
// @Tags events
// @Security BearerAuth
// @Success 101 {string} string "switching protocols"
// @Failure 401 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		uid, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration failed", "user_id", uid, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		middleware.Logger.Info("websocket connected", "user_id", uid)
		defer middleware.Logger.Info("websocket disconnected", "user_id", uid)

		go client.WritePump()
		client.ReadPump()
	})
}
