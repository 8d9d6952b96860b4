package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"versize/internal/featureflags"
	"versize/internal/models"
	"versize/internal/observability"
	"versize/internal/repository"
	"versize/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// ReviewConfig holds the guild settings the review engine routes with.
type ReviewConfig struct {
	// ReviewerRoleIDs are mentioned when a thread opens.
	ReviewerRoleIDs []string
	// AcceptRoleID is granted to accepted applicants when set.
	AcceptRoleID string
	// DecisionLogChannel receives a summary of every decision when set.
	DecisionLogChannel string
}

// ReviewService provides application intake and the accept/deny state machine.
type ReviewService struct {
	cases     repository.CaseRepository
	collab    Collaborators
	run       collaboratorRunner
	blacklist BlacklistStore
	flags     *featureflags.Manager
	cfg       ReviewConfig
}

// NewReviewService returns a new ReviewService. blacklist and flags may be nil, which disables the blacklist gate.
func NewReviewService(cases repository.CaseRepository, collab Collaborators, blacklist BlacklistStore, flags *featureflags.Manager, cfg ReviewConfig) *ReviewService {
	collab = collab.withDefaults()
	return &ReviewService{
		cases:     cases,
		collab:    collab,
		run:       collab.runner(),
		blacklist: blacklist,
		flags:     flags,
		cfg:       cfg,
	}
}

// Authorize reports whether actor may review applications.
func (s *ReviewService) Authorize(ctx context.Context, actor models.Actor) error {
	return s.collab.authorize(ctx, s.run, actor)
}

// Submit validates a submission, opens its review thread and stores the pending case.
// No case exists if validation or thread creation fails.
func (s *ReviewService) Submit(ctx context.Context, sub models.Submission) (*models.ApplicationCase, error) {
	span, ctx := observability.StartSpan(ctx, "review.submit", attribute.String("application.kind", string(sub.Kind)))
	defer span.End()

	form, ok := sub.Kind.Form()
	if !ok {
		observability.ApplicationsRejected.WithLabelValues("validation").Inc()
		return nil, models.NewValidationError("unknown application kind", "kind: "+string(sub.Kind))
	}

	source := sub.Source
	if source == "" {
		source = models.ApplicationSourceForm
	}

	fields := validation.NormalizeFields(sub.Fields)
	if problems := validation.ValidateApplication(fields, validation.OptionalFields(source)...); len(problems) > 0 {
		observability.ApplicationsRejected.WithLabelValues("validation").Inc()
		return nil, models.NewValidationError("application is incomplete", problems...)
	}

	if entry, blocked := s.blacklisted(sub, fields[models.FieldICIdentity]); blocked {
		observability.ApplicationsRejected.WithLabelValues("blacklisted").Inc()
		slog.InfoContext(ctx, "application refused, applicant is blacklisted", "static", entry.StaticName, "entry_id", entry.ID)
		return nil, models.NewValidationError("applicant is blacklisted", "until: "+entry.UntilLabel())
	}

	submittedBy := sub.Submitter.Name
	if submittedBy == "" {
		submittedBy = sub.Submitter.ID
	}

	c := &models.ApplicationCase{
		ID:          s.collab.NewID(),
		Kind:        sub.Kind,
		Source:      source,
		ApplicantID: sub.Submitter.ID,
		SubmittedBy: submittedBy,
		Fields:      fields,
		Status:      models.ApplicationStatusPending,
		CreatedAt:   s.collab.Now().UTC(),
	}
	span.AddAttributes(attribute.String("case.id", c.ID))

	title := "Application — " + fields[models.FieldOOCName]
	msg := applicationMessage(form, c, s.cfg.ReviewerRoleIDs)
	err := s.run.call(ctx, "discussion.open_thread", func(ctx context.Context) error {
		var err error
		c.Thread, err = s.collab.Discussion.OpenThread(ctx, title, msg, decisionControls(c.ID))
		return err
	})
	if err != nil {
		span.SetError(err)
		return nil, models.NewCollaboratorError("opening the review thread", err)
	}
	if c.Thread.Name == "" {
		c.Thread.Name = title
	}

	if err := s.cases.Create(ctx, c); err != nil {
		span.SetError(err)
		// Nothing backs the thread's buttons now, so close it.
		s.run.try(context.WithoutCancel(ctx), "discussion.archive", func(ctx context.Context) error {
			return s.collab.Discussion.Archive(ctx, c.Thread)
		})
		return nil, err
	}

	observability.ApplicationsSubmitted.WithLabelValues(string(c.Kind), string(c.Source)).Inc()
	slog.InfoContext(ctx, "application submitted", "case_id", c.ID, "kind", c.Kind, "thread_id", c.Thread.ID)
	s.collab.publish(ctx, s.run, models.EventCaseSubmitted, c.ID, c)

	return c, nil
}

// blacklisted applies the optional blacklist gate to an IC identity. Lift requests are never gated.
func (s *ReviewService) blacklisted(sub models.Submission, identity string) (models.BlacklistEntry, bool) {
	if s.blacklist == nil || sub.Kind == models.ApplicationKindBlacklistLift {
		return models.BlacklistEntry{}, false
	}
	if !s.flags.Enabled(featureflags.BlacklistGate, sub.Submitter.ID) {
		return models.BlacklistEntry{}, false
	}
	for _, e := range s.blacklist.ListActive() {
		if e.MatchesIdentity(identity) {
			return e, true
		}
	}
	return models.BlacklistEntry{}, false
}

// Get returns one case.
func (s *ReviewService) Get(ctx context.Context, caseID string) (*models.ApplicationCase, error) {
	return s.cases.GetByID(ctx, caseID)
}

// GetByThread returns the case owning a thread.
func (s *ReviewService) GetByThread(ctx context.Context, threadID string) (*models.ApplicationCase, error) {
	return s.cases.GetByThread(ctx, threadID)
}

// List returns cases by status, oldest first. An empty status lists all cases.
func (s *ReviewService) List(ctx context.Context, status models.ApplicationStatus) ([]*models.ApplicationCase, error) {
	return s.cases.List(ctx, status)
}

// Accept moves a pending case to accepted and runs the acceptance side effects.
func (s *ReviewService) Accept(ctx context.Context, caseID string, reviewer models.Actor) (*models.ApplicationCase, error) {
	return s.decide(ctx, caseID, reviewer, models.ApplicationStatusAccepted, "")
}

// Deny moves a pending case to denied with a reason and runs the denial side effects.
func (s *ReviewService) Deny(ctx context.Context, caseID string, reviewer models.Actor, reason string) (*models.ApplicationCase, error) {
	return s.decide(ctx, caseID, reviewer, models.ApplicationStatusDenied, reason)
}

func (s *ReviewService) decide(ctx context.Context, caseID string, reviewer models.Actor, status models.ApplicationStatus, reason string) (*models.ApplicationCase, error) {
	span, ctx := observability.StartSpan(ctx, "review.decide",
		attribute.String("case.id", caseID),
		attribute.String("case.decision", string(status)),
	)
	defer span.End()

	if err := s.Authorize(ctx, reviewer); err != nil {
		span.SetError(err)
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if status == models.ApplicationStatusDenied && reason == "" {
		return nil, models.NewValidationError("a reason is required to deny an application")
	}

	decided, err := s.cases.Transition(ctx, caseID, func(c *models.ApplicationCase) error {
		if c.Status != models.ApplicationStatusPending {
			return models.NewInvalidStateError(fmt.Sprintf("application is already %s", c.Status))
		}
		now := s.collab.Now().UTC()
		c.Status = status
		c.DecidedBy = reviewer.ID
		c.DecidedAt = &now
		c.DecisionReason = reason
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	observability.ApplicationsDecided.WithLabelValues(string(status)).Inc()
	slog.InfoContext(ctx, "application decided", "case_id", decided.ID, "status", status, "reviewer_id", reviewer.ID)

	// The decision is committed; side effects must not be cut short by the caller going away.
	s.applyDecision(context.WithoutCancel(ctx), decided, reviewer)
	return decided, nil
}

// applyDecision runs the post-decision steps in order. Each step is best effort.
func (s *ReviewService) applyDecision(ctx context.Context, c *models.ApplicationCase, reviewer models.Actor) {
	thread := c.Thread
	d := s.collab.Discussion

	s.run.try(ctx, "discussion.reactivate", func(ctx context.Context) error {
		archived, err := d.IsArchived(ctx, thread)
		if err != nil || !archived {
			return err
		}
		return d.Reactivate(ctx, thread)
	})

	s.run.try(ctx, "discussion.notice", func(ctx context.Context) error {
		return d.PostMessage(ctx, thread, decisionNotice(c, reviewer))
	})

	if c.Status == models.ApplicationStatusAccepted && s.cfg.AcceptRoleID != "" {
		if c.ApplicantID == "" {
			slog.InfoContext(ctx, "accepted applicant has no platform identity, role not granted", "case_id", c.ID)
		} else {
			s.run.try(ctx, "members.grant_role", func(ctx context.Context) error {
				return s.collab.Members.GrantRole(ctx, c.ApplicantID, s.cfg.AcceptRoleID)
			})
		}
	}

	s.run.try(ctx, "discussion.archive", func(ctx context.Context) error {
		return d.Archive(ctx, thread)
	})

	s.collab.notify(ctx, s.run, "sink.decision_log", s.cfg.DecisionLogChannel, decisionLog(c, reviewer))
	s.collab.publish(ctx, s.run, models.EventCaseDecided, c.ID, c)
}
