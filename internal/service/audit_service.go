package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"versize/internal/models"
	"versize/internal/observability"
)

// AuditService records staff actions and carries out dismissals.
type AuditService struct {
	collab  Collaborators
	run     collaboratorRunner
	channel string
	kicks   sync.WaitGroup
}

// NewAuditService returns a new AuditService. channelID receives audit notices when set.
func NewAuditService(collab Collaborators, channelID string) *AuditService {
	collab = collab.withDefaults()
	return &AuditService{
		collab:  collab,
		run:     collab.runner(),
		channel: channelID,
	}
}

// RecordAuthorized checks the actor's review capability and then records the entry.
func (s *AuditService) RecordAuthorized(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	if err := s.collab.authorize(ctx, s.run, entry.Actor); err != nil {
		return models.AuditEntry{}, err
	}

	action, ok := models.ParseAuditAction(string(entry.Action))
	var problems []string
	if !ok {
		problems = append(problems, "action must be one of promote, demote, warn, fire, give_rank")
	}
	if strings.TrimSpace(entry.Target.ID) == "" {
		problems = append(problems, "target is required")
	}
	if len(problems) > 0 {
		return models.AuditEntry{}, models.NewValidationError("audit entry is incomplete", problems...)
	}
	entry.Action = action
	return s.Record(ctx, entry), nil
}

// Record posts the entry to the audit channel. A fire action also removes the target
// from the guild in the background; the kick outcome never affects the record.
func (s *AuditService) Record(ctx context.Context, entry models.AuditEntry) models.AuditEntry {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.collab.Now().UTC()
	}
	entry.Reason = strings.TrimSpace(entry.Reason)

	observability.AuditRecords.WithLabelValues(string(entry.Action)).Inc()
	slog.InfoContext(ctx, "audit recorded", "action", entry.Action, "actor_id", entry.Actor.ID, "target_id", entry.Target.ID)

	s.collab.notify(ctx, s.run, "sink.audit", s.channel, auditMessage(entry))
	s.collab.publish(ctx, s.run, models.EventAuditRecorded, entry.Target.ID, entry)

	if entry.Action == models.AuditActionFire && entry.Target.ID != "" && s.collab.Members != nil {
		s.kick(context.WithoutCancel(ctx), entry)
	}
	return entry
}

func (s *AuditService) kick(ctx context.Context, entry models.AuditEntry) {
	reason := entry.Reason
	if reason == "" {
		reason = "Dismissed"
	}
	s.kicks.Add(1)
	go func() {
		defer s.kicks.Done()
		if !s.run.try(ctx, "members.kick", func(ctx context.Context) error {
			return s.collab.Members.Kick(ctx, entry.Target.ID, reason)
		}) {
			slog.ErrorContext(ctx, "dismissed member could not be removed from the guild", "target_id", entry.Target.ID)
		}
	}()
}

// Wait blocks until background kicks finish.
func (s *AuditService) Wait() {
	s.kicks.Wait()
}
