// Package service holds the review engine, blacklist commands, audit recorder and expiry scheduler.
package service

import (
	"context"
	"log/slog"
	"time"

	"versize/internal/blacklist"
	"versize/internal/models"

	"github.com/google/uuid"
)

// Discussion manages review threads on the chat platform.
type Discussion interface {
	OpenThread(ctx context.Context, title string, msg models.Message, controls []models.Control) (models.ThreadRef, error)
	PostMessage(ctx context.Context, thread models.ThreadRef, msg models.Message) error
	IsArchived(ctx context.Context, thread models.ThreadRef) (bool, error)
	Reactivate(ctx context.Context, thread models.ThreadRef) error
	Archive(ctx context.Context, thread models.ThreadRef) error
}

// Members answers permission questions and applies member-level actions.
type Members interface {
	HasReviewCapability(ctx context.Context, userID string) (bool, error)
	GrantRole(ctx context.Context, userID, roleID string) error
	Kick(ctx context.Context, userID, reason string) error
}

// Sink delivers a message to a named channel.
type Sink interface {
	Notify(ctx context.Context, channelID string, msg models.Message) error
}

// EventPublisher fans lifecycle events out to the panel.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// BlacklistStore is the persistence the blacklist commands and the scheduler need.
type BlacklistStore interface {
	Add(entry models.BlacklistEntry) error
	Remove(match blacklist.Matcher) (bool, error)
	ListActive() []models.BlacklistEntry
	SweepExpired(now time.Time) ([]models.BlacklistEntry, error)
}

// Collaborators bundles the ports shared by every service. Sink and Events may be nil.
type Collaborators struct {
	Discussion Discussion
	Members    Members
	Sink       Sink
	Events     EventPublisher
	// Timeout bounds every collaborator call. Zero means 10s.
	Timeout time.Duration
	Now     func() time.Time
	NewID   func() string
}

func (c Collaborators) withDefaults() Collaborators {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	return c
}

func (c Collaborators) runner() collaboratorRunner {
	return collaboratorRunner{timeout: c.Timeout}
}

// notify sends to channelID when both a sink and a channel are configured.
func (c Collaborators) notify(ctx context.Context, r collaboratorRunner, operation, channelID string, msg models.Message) {
	if c.Sink == nil || channelID == "" {
		slog.DebugContext(ctx, "notification skipped, no channel configured", "operation", operation)
		return
	}
	r.try(ctx, operation, func(ctx context.Context) error {
		return c.Sink.Notify(ctx, channelID, msg)
	})
}

func (c Collaborators) publish(ctx context.Context, r collaboratorRunner, eventType models.EventType, subject string, payload any) {
	if c.Events == nil {
		return
	}
	event := models.Event{Type: eventType, Subject: subject, Payload: payload, OccurredAt: c.Now().UTC()}
	r.try(ctx, "events.publish", func(ctx context.Context) error {
		return c.Events.Publish(ctx, event)
	})
}

// authorize checks the review capability. A failed lookup counts as no capability.
func (c Collaborators) authorize(ctx context.Context, r collaboratorRunner, actor models.Actor) error {
	if actor.ID == "" {
		return models.NewUnauthorizedError("reviewer identity is required")
	}
	if c.Members == nil {
		return models.NewUnauthorizedError("reviewer permissions are unavailable")
	}

	var allowed bool
	err := r.call(ctx, "members.capability", func(ctx context.Context) error {
		var err error
		allowed, err = c.Members.HasReviewCapability(ctx, actor.ID)
		return err
	})
	if err != nil {
		return models.NewUnauthorizedError("could not verify reviewer permissions")
	}
	if !allowed {
		return models.NewUnauthorizedError("you do not have a reviewer role")
	}
	return nil
}
