package server

import (
	"errors"

	"versize/internal/middleware"
	"versize/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten means a helper already committed the response.
// Handlers must return nil, not this error, so the ErrorHandler does not overwrite it.
var errResponseWritten = errors.New("response already written")

// respondError answers with the status that matches the error's code.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// actor returns the authenticated reviewer or writes a 401.
func (s *Server) actor(c *fiber.Ctx) (models.Actor, error) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("Authorization required"))
		return models.Actor{}, errResponseWritten
	}
	return a, nil
}

// requireReviewer refuses panel routes to tokens whose member lacks the review capability.
func (s *Server) requireReviewer(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	if err := s.reviews.Authorize(c.UserContext(), actor); err != nil {
		return respondError(c, err)
	}
	return c.Next()
}

// bindJSON parses the body or writes a 400.
func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}
