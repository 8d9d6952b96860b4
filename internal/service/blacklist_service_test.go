package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"versize/internal/blacklist"
	"versize/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlacklistFixture(t *testing.T) (*BlacklistService, *blacklist.Store, *testHarness) {
	t.Helper()
	h := newHarness()
	store := blacklist.NewStore(filepath.Join(t.TempDir(), "blacklist.json"), blacklist.WithClock(h.clock.Now))
	return NewBlacklistService(store, h.collaborators(), "bl-channel"), store, h
}

var reviewer = models.Actor{ID: "reviewer-1", Name: "reviewer"}

func TestBlacklistServiceAddSevenDays(t *testing.T) {
	svc, store, h := newBlacklistFixture(t)
	ctx := context.Background()

	entry, err := svc.Add(ctx, reviewer, "John Doe#1234", "cheating", "7d")
	require.NoError(t, err)

	require.NotNil(t, entry.Until)
	assert.Equal(t, h.clock.Now().Add(7*24*time.Hour).UnixMilli(), *entry.Until)
	assert.Equal(t, "reviewer-1", entry.AddedBy)

	active := svc.ListActive(ctx)
	require.Len(t, active, 1)
	assert.Equal(t, entry.ID, active[0].ID)

	sent := h.sink.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "bl-channel", sent[0].channelID)
	assert.Equal(t, []models.EventType{models.EventBlacklistAdded}, h.events.types())

	h.clock.Advance(7*24*time.Hour + time.Second)
	assert.Empty(t, svc.ListActive(ctx))
	assert.Len(t, store.Load().Items, 1, "listing must not rewrite the store")
}

func TestBlacklistServiceAddPermanent(t *testing.T) {
	svc, store, h := newBlacklistFixture(t)

	entry, err := svc.Add(context.Background(), reviewer, "Jane Roe", "scamming", "permanent")
	require.NoError(t, err)
	assert.Nil(t, entry.Until)

	h.clock.Advance(10 * 365 * 24 * time.Hour)
	expired, err := store.SweepExpired(h.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, expired)
	assert.Len(t, svc.ListActive(context.Background()), 1)
}

func TestBlacklistServiceAddInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		static   string
		reason   string
		duration string
	}{
		{name: "missing static", static: " ", reason: "cheating", duration: "1d"},
		{name: "missing reason", static: "John", reason: "", duration: "1d"},
		{name: "unrecognized duration", static: "John", reason: "cheating", duration: "2w"},
		{name: "zero duration", static: "John", reason: "cheating", duration: "0h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, h := newBlacklistFixture(t)

			_, err := svc.Add(context.Background(), reviewer, tt.static, tt.reason, tt.duration)
			assert.True(t, models.IsCode(err, models.CodeValidation), "got %v", err)
			assert.Empty(t, store.Load().Items)
			assert.Empty(t, h.sink.messages())
		})
	}
}

func TestBlacklistServiceRequiresReviewer(t *testing.T) {
	svc, store, _ := newBlacklistFixture(t)

	_, err := svc.Add(context.Background(), models.Actor{ID: "random"}, "John", "cheating", "1d")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	_, err = svc.Remove(context.Background(), models.Actor{ID: "random"}, "John")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
	assert.Empty(t, store.Load().Items)
}

func TestBlacklistServiceRemoveCaseInsensitive(t *testing.T) {
	svc, store, h := newBlacklistFixture(t)
	ctx := context.Background()
	_, err := svc.Add(ctx, reviewer, "John Doe#1234", "cheating", "7d")
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, reviewer, "john doe#1234")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, store.Load().Items)
	assert.Equal(t, []models.EventType{models.EventBlacklistAdded, models.EventBlacklistRemoved}, h.events.types())
}

func TestBlacklistServiceRemoveByIDAndMiss(t *testing.T) {
	svc, _, h := newBlacklistFixture(t)
	ctx := context.Background()
	entry, err := svc.Add(ctx, reviewer, "Ann", "griefing", "")
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, reviewer, "nobody")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, h.sink.messages(), 1, "a miss sends no notice")

	removed, err = svc.Remove(ctx, reviewer, entry.ID)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestBlacklistServiceListMostRecentFirst(t *testing.T) {
	svc, _, h := newBlacklistFixture(t)
	ctx := context.Background()
	for _, name := range []string{"first", "second", "third"} {
		_, err := svc.Add(ctx, reviewer, name, "reason", "")
		require.NoError(t, err)
		h.clock.Advance(time.Minute)
	}

	active := svc.ListActive(ctx)
	require.Len(t, active, 3)
	assert.Equal(t, "third", active[0].StaticName)
	assert.Equal(t, "first", active[2].StaticName)
}
