package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/taskhub"
)

// Timeout returns a handler that bounds activity execution. The scheduled
// event's Timeout wins over fallback; zero for both means no deadline.
// Orchestration dispatches pass through.
func Timeout(logger *slog.Logger, fallback time.Duration) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return HandlerFunc(func(ctx context.Context, dc *DispatchContext, next Next) error {
		if dc.Kind() != taskhub.KindActivity {
			return next(ctx, dc)
		}
		d := fallback
		if ev, ok := Lookup(dc, ScheduledEventKey); ok && ev != nil && ev.Timeout > 0 {
			d = ev.Timeout
		}
		if d > 0 {
			logger.DebugContext(ctx, "activity timeout set",
				slog.String("task_name", describe(dc).Name),
				slog.Duration("timeout", d),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx, dc)
	})
}
