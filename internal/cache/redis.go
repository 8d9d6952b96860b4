// Package cache connects the shared Redis client used for events and rate limiting.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"versize/internal/observability"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// errorCounter feeds redis_errors_total. Cache misses are not errors.
type errorCounter struct{}

func countFailure(label string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrorRate.WithLabelValues(label).Inc()
	}
}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countFailure("pipeline", err)
		return err
	}
}

// options accepts either a redis:// URL or a bare host:port.
func options(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// Connect returns a Redis client for addr, or nil when addr is empty, malformed or unreachable.
// Without Redis the panel feed stays local to the process and rate limits fail open.
func Connect(addr string) *redis.Client {
	if addr == "" {
		slog.Info("REDIS_URL not set, running without event fan-out")
		return nil
	}
	opts, err := options(addr)
	if err != nil {
		slog.Warn("invalid REDIS_URL, continuing without redis", "error", err)
		return nil
	}

	client := redis.NewClient(opts)
	client.AddHook(errorCounter{})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unreachable, continuing without redis", "addr", opts.Addr, "error", err)
		_ = client.Close()
		return nil
	}
	slog.Info("redis connected", "addr", opts.Addr)
	return client
}
