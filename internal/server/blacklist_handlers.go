package server

import (
	"versize/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AddBlacklistRequest creates an entry. Duration is "permanent", "<n>h" or "<n>d".
type AddBlacklistRequest struct {
	Static   string `json:"static"`
	Reason   string `json:"reason"`
	Duration string `json:"duration"`
}

// ListBlacklist handles GET /api/blacklist.
func (s *Server) ListBlacklist(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"items": s.blacklist.ListActive(c.UserContext())})
}

// AddBlacklistEntry handles POST /api/blacklist.
func (s *Server) AddBlacklistEntry(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	var req AddBlacklistRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	entry, err := s.blacklist.Add(c.UserContext(), actor, req.Static, req.Reason, req.Duration)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// RemoveBlacklistEntry handles DELETE /api/blacklist/:key, matching an id or a static name.
func (s *Server) RemoveBlacklistEntry(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	key := c.Params("key")
	removed, err := s.blacklist.Remove(c.UserContext(), actor, key)
	if err != nil {
		return respondError(c, err)
	}
	if !removed {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Blacklist entry", key))
	}
	return c.SendStatus(fiber.StatusNoContent)
}
