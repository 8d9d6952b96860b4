// Package notifications fans lifecycle events out to connected panel clients.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"versize/internal/models"

	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis channel carrying lifecycle events.
const EventsChannel = "versize:events"

// Notifier publishes lifecycle events into Redis so every bot process can relay them.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether a Redis client is attached.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// Publish sends an event to the events channel. Without Redis it is a no-op.
func (n *Notifier) Publish(ctx context.Context, event models.Event) error {
	if !n.Enabled() {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, EventsChannel, payload).Err()
}

// StartEventSubscriber subscribes to the events channel and calls onMessage for every payload
// until ctx is cancelled.
func (n *Notifier) StartEventSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, EventsChannel)
	// Wait for the subscription confirmation so publishes right after return are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", EventsChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("panic in event subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
