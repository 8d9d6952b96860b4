package service

import (
	"context"
	"log/slog"
	"time"

	"versize/internal/observability"
)

// collaboratorRunner bounds collaborator calls with a timeout and records their outcome.
type collaboratorRunner struct {
	timeout time.Duration
}

// call runs fn under the timeout and returns its error.
func (r collaboratorRunner) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	span, ctx := observability.StartCollaboratorSpan(ctx, operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	observability.CollaboratorLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetError(err)
		observability.CollaboratorFailures.WithLabelValues(operation).Inc()
		slog.WarnContext(ctx, "collaborator call failed", "operation", operation, "error", err)
	}
	return err
}

// try runs a best-effort step. Failures are logged and counted, never returned.
func (r collaboratorRunner) try(ctx context.Context, operation string, fn func(context.Context) error) bool {
	return r.call(ctx, operation, fn) == nil
}
