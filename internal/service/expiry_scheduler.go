package service

import (
	"context"
	"log/slog"
	"time"

	"versize/internal/models"
	"versize/internal/observability"
)

// ExpiryScheduler periodically removes expired blacklist entries and announces them.
type ExpiryScheduler struct {
	store    BlacklistStore
	collab   Collaborators
	run      collaboratorRunner
	channel  string
	interval time.Duration
}

// NewExpiryScheduler returns a scheduler sweeping every interval. Zero means five minutes.
func NewExpiryScheduler(store BlacklistStore, collab Collaborators, channelID string, interval time.Duration) *ExpiryScheduler {
	collab = collab.withDefaults()
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ExpiryScheduler{
		store:    store,
		collab:   collab,
		run:      collab.runner(),
		channel:  channelID,
		interval: interval,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *ExpiryScheduler) Run(ctx context.Context) {
	slog.InfoContext(ctx, "blacklist expiry scheduler started", "interval", s.interval.String())
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("blacklist expiry scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns the entries it removed.
// A store failure is logged and yields nothing; the next tick retries.
func (s *ExpiryScheduler) RunOnce(ctx context.Context) []models.BlacklistEntry {
	expired, err := s.store.SweepExpired(s.collab.Now())
	if err != nil {
		slog.ErrorContext(ctx, "blacklist sweep failed", "error", err)
		return nil
	}
	for _, e := range expired {
		observability.BlacklistChanges.WithLabelValues("expire").Inc()
		slog.InfoContext(ctx, "blacklist entry expired", "entry_id", e.ID, "static", e.StaticName)
		s.collab.notify(ctx, s.run, "sink.blacklist_expired", s.channel, blacklistExpiredMessage(e))
		s.collab.publish(ctx, s.run, models.EventBlacklistExpired, e.ID, e)
	}
	return expired
}
