// Package middleware composes interceptors around activity and
// orchestration dispatch.
//
// A [Handler] receives the per-dispatch [DispatchContext] and a [Next]
// continuation. Handlers are registered as [Descriptor] values in a
// [Registry], one for each pipeline, and the registry is frozen into a
// [Pipeline] once at configuration time. The pipeline is a right fold:
// registration order is entry order, and code after next runs in reverse.
//
//	// tracing → data → business → terminal
//	reg := middleware.NewRegistry()
//	_ = reg.Add(middleware.Singleton(middleware.ActivityData(scopes, nil)))
//	_ = reg.Add(business)
//	_ = reg.Insert(0, middleware.Singleton(middleware.TraceActivity()))
//	p, err := reg.Freeze(middleware.RunActivity)
//
// # Built-in Handlers
//
//   - [ActivityData], [OrchestrationData]: open a diagnostics scope and
//     initialize the task instance with its logger and data converter
//   - [TraceActivity], [TraceOrchestration]: name and tag the ambient span
//   - [Logging]: replay-safe dispatch start and completion logs
//   - [Recover]: converts non-fatal panics to errors
//   - [Timeout]: bounds activity execution
//   - [Metrics]: per-task duration and outcome instruments
//   - [Failures]: translates task errors per the propagation options
//
// # Writing Custom Handlers
//
//	middleware.Func("audit", func(ctx context.Context, dc *middleware.DispatchContext, next middleware.Next) error {
//	    // before
//	    err := next(ctx, dc)
//	    // after
//	    return err
//	})
//
// A handler must either invoke next exactly once or call
// [DispatchContext.ShortCircuit] before returning without it.
package middleware
