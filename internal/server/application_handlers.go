package server

import (
	"crypto/subtle"
	"strings"

	"versize/internal/models"

	"github.com/gofiber/fiber/v2"
)

// WebhookFormRequest is the payload the external application form posts.
type WebhookFormRequest struct {
	Name       string `json:"name"`
	Discord    string `json:"discord"`
	IC         string `json:"ic"`
	History    string `json:"history"`
	Motivation string `json:"motivation"`
	Type       string `json:"type"`
}

func (r WebhookFormRequest) fields() map[string]string {
	return map[string]string{
		models.FieldOOCName:    r.Name,
		models.FieldContact:    r.Discord,
		models.FieldICIdentity: r.IC,
		models.FieldHistory:    r.History,
		models.FieldMotivation: r.Motivation,
	}
}

// DenyRequest carries the reason a reviewer denies an application.
type DenyRequest struct {
	Reason string `json:"reason"`
}

// SubmitWebhookForm handles POST /webhook/form.
func (s *Server) SubmitWebhookForm(c *fiber.Ctx) error {
	if secret := s.config.WebhookSecret; secret != "" {
		got := c.Get("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("invalid webhook secret"))
		}
	}

	var req WebhookFormRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	kind, ok := models.ParseApplicationKind(req.Type)
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("unknown application type", "type: "+req.Type))
	}

	submitter := strings.TrimSpace(req.Discord)
	if submitter == "" {
		submitter = "web form"
	}
	ac, err := s.reviews.Submit(c.UserContext(), models.Submission{
		Kind:      kind,
		Fields:    req.fields(),
		Submitter: models.Actor{Name: submitter},
		Source:    models.ApplicationSourceWebhook,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ac)
}

// ListApplications handles GET /api/applications?status=.
func (s *Server) ListApplications(c *fiber.Ctx) error {
	status := models.ApplicationStatus(strings.ToLower(c.Query("status")))
	switch status {
	case "", models.ApplicationStatusPending, models.ApplicationStatusAccepted, models.ApplicationStatusDenied:
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("status must be pending, accepted or denied"))
	}

	cases, err := s.reviews.List(c.UserContext(), status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cases)
}

// GetApplication handles GET /api/applications/:id.
func (s *Server) GetApplication(c *fiber.Ctx) error {
	ac, err := s.reviews.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ac)
}

// AcceptApplication handles POST /api/applications/:id/accept.
func (s *Server) AcceptApplication(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	ac, err := s.reviews.Accept(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ac)
}

// DenyApplication handles POST /api/applications/:id/deny.
func (s *Server) DenyApplication(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	var req DenyRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	ac, err := s.reviews.Deny(c.UserContext(), c.Params("id"), actor, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ac)
}

// GetMe handles GET /api/me.
func (s *Server) GetMe(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	reviewer := s.reviews.Authorize(c.UserContext(), actor) == nil
	return c.JSON(fiber.Map{
		"id":       actor.ID,
		"name":     actor.Name,
		"reviewer": reviewer,
		"features": s.featureFlags.Snapshot(actor.ID),
	})
}
