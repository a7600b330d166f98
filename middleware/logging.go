package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/taskhub/diagnostics"
)

// Logging returns a handler that logs dispatch start and completion.
// Orchestration logs are suppressed while the instance replays.
func Logging(logger *slog.Logger) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return HandlerFunc(func(ctx context.Context, dc *DispatchContext, next Next) error {
		t := describe(dc)
		log := logger
		if rs := replayState(dc); rs != nil {
			log = diagnostics.ReplaySafe(logger, rs)
		}
		log = log.With(
			slog.String("task_kind", string(t.Kind)),
			slog.String("task_name", t.Name),
			slog.String("instance_id", t.InstanceID),
		)

		log.InfoContext(ctx, "dispatch started", slog.String("task_version", t.Version))

		start := time.Now()
		err := next(ctx, dc)
		elapsed := time.Since(start)

		if err != nil {
			log.ErrorContext(ctx, "dispatch failed",
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			log.InfoContext(ctx, "dispatch completed", slog.Duration("elapsed", elapsed))
		}

		return err
	})
}
