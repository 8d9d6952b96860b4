package server

import (
	"log/slog"

	"versize/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func (s *Server) requireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired, models.NewValidationError("websocket upgrade required"))
	}
	return c.Next()
}

// PanelFeedHandler streams lifecycle events to a connected reviewer.
func (s *Server) PanelFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(string)
		if userID == "" {
			_ = conn.WriteJSON(models.ErrorResponse{Error: "unauthorized", Code: models.CodeUnauthorized})
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			slog.Warn("panel feed registration refused", "user_id", userID, "error", err)
			_ = conn.WriteJSON(models.ErrorResponse{Error: err.Error()})
			_ = conn.Close()
			return
		}
		slog.Info("panel feed connected", "user_id", userID, "connections", s.hub.Count())

		go client.WritePump()
		client.ReadPump()
	})
}
