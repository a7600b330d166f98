// Package hosting runs the engine as a supervised background process.
//
// A [Worker] owns the engine and drives its lifecycle through the states
// NotStarted, Starting, Running, Stopping and Stopped. Faulted is terminal
// and reachable from any non-terminal state. Start is allowed once. Stop
// waits for the engine to drain even when the caller's context is
// cancelled; [Worker.Kill] is the separate forced mode.
//
// A [Host] runs background services until the process receives a shutdown
// signal or a service reports a fatal failure, then stops them in reverse
// start order within the configured shutdown timeout.
//
//	w, _ := hosting.NewWorker(engine, hosting.WithOptions(opts))
//	host := hosting.NewHost(hosting.WithHostLogger(logger))
//	host.Add(w)
//	if err := host.Run(ctx); err != nil {
//	    os.Exit(1)
//	}
package hosting
