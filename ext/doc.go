// Package ext defines the extension system for the task hub.
//
// Extensions are notified of worker lifecycle events and can react to
// them, recording metrics or writing audit logs. Each hook is a separate
// interface so extensions opt in only to the events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	func (e *MyExtension) OnWorkerFaulted(ctx context.Context, wid id.WorkerID, err error) error {
//	    log.Printf("worker %s faulted: %v", wid, err)
//	    return nil
//	}
//
// # Worker Lifecycle Hooks
//
//   - [WorkerStarting]: start was requested
//   - [WorkerStarted]: the engine is running
//   - [WorkerStopping]: stop or kill was requested
//   - [WorkerStopped]: the engine has stopped
//   - [WorkerFaulted]: start or stop failed
//
// # Other Hooks
//
//   - [PipelineBuilt]: a dispatch pipeline was frozen
//   - [Shutdown]: the host is shutting down
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface. Hook errors are logged and
// never propagated.
package ext
