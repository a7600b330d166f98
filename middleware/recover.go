package middleware

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/taskhub"
	"github.com/xraph/taskhub/failure"
)

// Recover returns a handler that converts panics in the rest of the chain
// into *failure.PanicError values. Fatal panics are re-raised.
func Recover(logger *slog.Logger) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return HandlerFunc(func(ctx context.Context, dc *DispatchContext, next Next) (retErr error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if taskhub.IsFatal(taskhub.PanicError(r)) {
				panic(r)
			}
			t := describe(dc)
			stack := string(debug.Stack())
			logger.ErrorContext(ctx, "task panicked",
				slog.String("task_kind", string(t.Kind)),
				slog.String("task_name", t.Name),
				slog.Any("panic", r),
				slog.String("stack", stack),
			)
			retErr = &failure.PanicError{Value: r, Stack: stack}
		}()
		return next(ctx, dc)
	})
}
