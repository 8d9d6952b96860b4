package server

import (
	"versize/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AuditRequest records a staff action against a member.
type AuditRequest struct {
	Action     string `json:"action"`
	TargetID   string `json:"target_id"`
	TargetName string `json:"target_name"`
	FromRank   string `json:"from_rank"`
	ToRank     string `json:"to_rank"`
	Reason     string `json:"reason"`
}

// RecordAudit handles POST /api/audit.
func (s *Server) RecordAudit(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	var req AuditRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	entry, err := s.audit.RecordAuthorized(c.UserContext(), models.AuditEntry{
		Action:   models.AuditAction(req.Action),
		Actor:    actor,
		Target:   models.Actor{ID: req.TargetID, Name: req.TargetName},
		FromRank: req.FromRank,
		ToRank:   req.ToRank,
		Reason:   req.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}
