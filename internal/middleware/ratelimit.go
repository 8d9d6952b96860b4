package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"versize/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what a limited route does while Redis is down.
type FailPolicy int

const (
	// FailOpen lets requests through unmetered.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

var errNoLimiter = errors.New("rate limiter has no redis client")

// window is one fixed counting window for a caller on a route.
type window struct {
	count int64
	reset time.Duration
}

func hit(ctx context.Context, rdb *redis.Client, key string, span time.Duration) (window, error) {
	if rdb == nil {
		return window{}, errNoLimiter
	}
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	if _, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	}); err != nil {
		return window{}, err
	}
	w := window{count: incr.Val(), reset: ttl.Val()}
	if w.reset < 0 {
		// First hit in the window, or a key that lost its expiry.
		if err := rdb.Expire(ctx, key, span).Err(); err != nil {
			return window{}, err
		}
		w.reset = span
	}
	return w, nil
}

// CheckRateLimit counts one request from id against resource and reports whether it is within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, span time.Duration) (bool, error) {
	w, err := hit(ctx, rdb, "rl:"+resource+":"+id, span)
	if err != nil {
		return false, err
	}
	return w.count <= int64(limit), nil
}

// RateLimit meters a route per reviewer, or per IP for unauthenticated callers. Redis outages fail open.
func RateLimit(rdb *redis.Client, limit int, span time.Duration, name string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, span, FailOpen, name)
}

// RateLimitWithPolicy is RateLimit with an explicit outage policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, span time.Duration, policy FailPolicy, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := "ip:" + c.IP()
		if actor, ok := CurrentActor(c); ok {
			caller = "user:" + actor.ID
		}
		resource := name
		if resource == "" {
			resource = c.Path()
		}

		w, err := hit(c.UserContext(), rdb, "rl:"+resource+":"+caller, span)
		if err != nil {
			if policy == FailClosed {
				slog.WarnContext(c.UserContext(), "rate limit unavailable, refusing request", "resource", resource, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{Error: "rate limit unavailable"})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(max(int64(limit)-w.count, 0), 10))
		if w.count > int64(limit) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(w.reset.Round(time.Second).Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{Error: "rate limit exceeded"})
		}
		return c.Next()
	}
}
