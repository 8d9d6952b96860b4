package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"versize/internal/blacklist"
	"versize/internal/models"
	"versize/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// BlacklistService implements the add/remove/list commands on top of the store.
type BlacklistService struct {
	store   BlacklistStore
	collab  Collaborators
	run     collaboratorRunner
	channel string
}

// NewBlacklistService returns a new BlacklistService. channelID receives change notices when set.
func NewBlacklistService(store BlacklistStore, collab Collaborators, channelID string) *BlacklistService {
	collab = collab.withDefaults()
	return &BlacklistService{
		store:   store,
		collab:  collab,
		run:     collab.runner(),
		channel: channelID,
	}
}

// Add records a new entry. duration is empty or "permanent" for a permanent entry, "<n>h" or "<n>d" otherwise.
func (s *BlacklistService) Add(ctx context.Context, actor models.Actor, static, reason, duration string) (models.BlacklistEntry, error) {
	span, ctx := observability.StartSpan(ctx, "blacklist.add", attribute.String("blacklist.static", static))
	defer span.End()

	if err := s.collab.authorize(ctx, s.run, actor); err != nil {
		return models.BlacklistEntry{}, err
	}

	static = strings.TrimSpace(static)
	reason = strings.TrimSpace(reason)
	var problems []string
	if static == "" {
		problems = append(problems, "static is required")
	}
	if reason == "" {
		problems = append(problems, "reason is required")
	}
	if len(problems) > 0 {
		return models.BlacklistEntry{}, models.NewValidationError("blacklist entry is incomplete", problems...)
	}

	now := s.collab.Now()
	until, err := blacklist.ParseDuration(duration, now)
	if err != nil {
		return models.BlacklistEntry{}, err
	}

	entry := blacklist.NewEntry(s.collab.NewID(), static, reason, actor.ID, now, until)
	if err := s.store.Add(entry); err != nil {
		span.SetError(err)
		return models.BlacklistEntry{}, models.NewInternalError(err)
	}

	observability.BlacklistChanges.WithLabelValues("add").Inc()
	slog.InfoContext(ctx, "blacklist entry added", "entry_id", entry.ID, "static", entry.StaticName, "added_by", actor.ID)

	s.collab.notify(ctx, s.run, "sink.blacklist", s.channel, blacklistAddedMessage(entry))
	s.collab.publish(ctx, s.run, models.EventBlacklistAdded, entry.ID, entry)
	return entry, nil
}

// Remove deletes every entry whose ID or static name matches key. It reports whether anything was removed.
func (s *BlacklistService) Remove(ctx context.Context, actor models.Actor, key string) (bool, error) {
	span, ctx := observability.StartSpan(ctx, "blacklist.remove")
	defer span.End()

	if err := s.collab.authorize(ctx, s.run, actor); err != nil {
		return false, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return false, models.NewValidationError("static or entry id is required")
	}

	removed, err := s.store.Remove(blacklist.ByIDOrStatic(key))
	if err != nil {
		span.SetError(err)
		return false, models.NewInternalError(err)
	}
	if !removed {
		return false, nil
	}

	observability.BlacklistChanges.WithLabelValues("remove").Inc()
	slog.InfoContext(ctx, "blacklist entry removed", "key", key, "removed_by", actor.ID)

	s.collab.notify(ctx, s.run, "sink.blacklist", s.channel, blacklistRemovedMessage(key, actor))
	s.collab.publish(ctx, s.run, models.EventBlacklistRemoved, key, map[string]string{"key": key, "removed_by": actor.ID})
	return true, nil
}

// ListActive returns unexpired entries, most recent first.
func (s *BlacklistService) ListActive(_ context.Context) []models.BlacklistEntry {
	entries := s.store.ListActive()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt > entries[j].CreatedAt
	})
	return entries
}
