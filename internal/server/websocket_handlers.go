package server

import (
	"encoding/json"
	"log/slog"

	"cidadeemfoco/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RequireUpgrade rejects plain HTTP requests to websocket routes with 426.
func (s *Server) RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// FeedHandler handles GET /api/ws/feed. The feed is public and read-only: the server pushes
// post_created and post_reaction_updated events, anything the client sends is discarded.
// @Summary Realtime feed
// @Tags realtime
// @Success 101
// @Failure 426 {object} models.ErrorResponse
// @Router /ws/feed [get]
func (s *Server) FeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client, err := s.hub.Register(conn)
		if err != nil {
			middleware.Logger.Warn("feed connection rejected", slog.String("error", err.Error()))
			msg, _ := json.Marshal(fiber.Map{"error": err.Error()})
			_ = conn.WriteMessage(websocket.TextMessage, msg)
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
