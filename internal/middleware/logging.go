// Package middleware provides logging, authentication, metrics and rate limiting for the panel.
package middleware

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is the process logger. main replaces it once config is loaded.
var Logger = NewLogger(os.Getenv("APP_ENV"))

type contextKey string

const (
	RequestIDKey     contextKey = "request_id"
	UserIDKey        contextKey = "user_id"
	TraceIDKey       contextKey = "trace_id"
	InteractionIDKey contextKey = "interaction_id"
)

// loggedKeys are copied from the context onto every record, in this order.
var loggedKeys = []contextKey{RequestIDKey, InteractionIDKey, UserIDKey, TraceIDKey}

// ctxHandler copies request and interaction identifiers from the context onto each record.
type ctxHandler struct {
	slog.Handler
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, key := range loggedKeys {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			r.AddAttrs(slog.String(string(key), v))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

// NewLogger writes JSON in production and text elsewhere. LOG_LEVEL=debug lowers the threshold.
func NewLogger(env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(&ctxHandler{handler})
}

// WithUserID tags ctx with the acting reviewer or applicant.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithInteraction tags ctx with a Discord interaction and the user who triggered it.
func WithInteraction(ctx context.Context, interactionID, userID string) context.Context {
	ctx = context.WithValue(ctx, InteractionIDKey, interactionID)
	return WithUserID(ctx, userID)
}

// ContextMiddleware moves the request id, reviewer id and trace id from Fiber locals into the request context.
func ContextMiddleware() fiber.Handler {
	locals := map[string]contextKey{"requestid": RequestIDKey, "userID": UserIDKey, "traceID": TraceIDKey}
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		for local, key := range locals {
			if v, ok := c.Locals(local).(string); ok {
				ctx = context.WithValue(ctx, key, v)
			}
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger logs one line per panel request.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		attrs := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}
		if err != nil {
			Logger.ErrorContext(c.UserContext(), "request failed", append(attrs, slog.String("error", err.Error()))...)
			return err
		}
		Logger.InfoContext(c.UserContext(), "request processed", attrs...)
		return nil
	}
}
