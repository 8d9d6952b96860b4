package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"versize/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Publish(context.Background(), models.Event{Type: models.EventCaseSubmitted}))
	assert.NoError(t, n.StartEventSubscriber(context.Background(), func(string) {}))
}

func TestNotifier_PublishAndSubscribe(t *testing.T) {
	n := NewNotifier(newTestRedis(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payloads := make(chan string, 4)
	require.NoError(t, n.StartEventSubscriber(ctx, func(payload string) { payloads <- payload }))

	event := models.Event{Type: models.EventCaseDecided, Subject: "case-1", OccurredAt: time.Unix(1, 0).UTC()}
	require.NoError(t, n.Publish(context.Background(), event))

	var got string
	require.Eventually(t, func() bool {
		select {
		case got = <-payloads:
			return true
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)

	var decoded models.Event
	require.NoError(t, json.Unmarshal([]byte(got), &decoded))
	assert.Equal(t, models.EventCaseDecided, decoded.Type)
	assert.Equal(t, "case-1", decoded.Subject)
}

func TestNotifier_SubscriberSurvivesPanics(t *testing.T) {
	n := NewNotifier(newTestRedis(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 4)
	require.NoError(t, n.StartEventSubscriber(ctx, func(string) {
		calls <- struct{}{}
		panic("handler bug")
	}))

	require.NoError(t, n.Publish(context.Background(), models.Event{Type: models.EventAuditRecorded}))
	require.NoError(t, n.Publish(context.Background(), models.Event{Type: models.EventAuditRecorded}))

	assert.Eventually(t, func() bool { return len(calls) == 2 }, testEventuallyTimeout, testPollInterval)
}
