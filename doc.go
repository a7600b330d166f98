// Package taskhub extends an external durable task engine with three
// cross-cutting capabilities: a composable interception pipeline around every
// activity and orchestration dispatch, a supervised background worker that
// starts and gracefully stops the engine, and replay-aware diagnostics that
// never duplicate output while the engine re-executes history.
//
// The engine itself (work-item polling, history persistence, checkpointing)
// is consumed through narrow interfaces only.
//
// # Quick Start
//
//	b := builder.New(builder.WithLogger(logger), builder.WithOptions(opts))
//	_ = b.AddActivity(task.NewActivity("SendGreeting", "1", newSendGreeting))
//	_ = b.UseActivityMiddleware(middleware.Named("logging", middleware.Logging(logger)))
//	if err := b.Build(ctx, eng); err != nil {
//	    return err
//	}
//
//	w, err := hosting.NewWorker(eng, hosting.WithOptions(opts), hosting.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	host := hosting.NewHost(hosting.WithHostOptions(opts), hosting.WithHostLogger(logger))
//	host.Add(w)
//	return host.Run(ctx)
//
// # Architecture
//
//	task          engine-facing task model, converters, registry
//	middleware    dispatch context, handler chain, built-in interceptors
//	diagnostics   replay-aware slog handler, scoped diagnostics
//	tracing       span naming, tags, trace-context side channel
//	failure       error propagation modes
//	builder       registration facade handed to the engine
//	hosting       supervised worker and process host
//	ext           worker lifecycle extension hooks
//	observability lifecycle metrics extension
//	audit_hook    lifecycle audit trail extension
//
// All identifiers use TypeID: type-prefixed, K-sortable, UUIDv7-based.
package taskhub
