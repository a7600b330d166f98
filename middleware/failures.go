package middleware

import (
	"context"

	"github.com/xraph/taskhub/failure"
)

// Failures returns the innermost handler that converts task errors into
// *failure.TaskFailedError values per p.
func Failures(p *failure.Propagator) Handler {
	return HandlerFunc(func(ctx context.Context, dc *DispatchContext, next Next) error {
		err := next(ctx, dc)
		if err == nil {
			return nil
		}
		return p.Surface(dc.Kind(), describe(dc).Name, err)
	})
}
