package ext

import (
	"context"
	"time"

	"github.com/xraph/taskhub"
	"github.com/xraph/taskhub/id"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Worker lifecycle hooks
// ──────────────────────────────────────────────────

// WorkerStarting is called before the engine is started.
type WorkerStarting interface {
	OnWorkerStarting(ctx context.Context, wid id.WorkerID) error
}

// WorkerStarted is called once the engine reports it is running.
type WorkerStarted interface {
	OnWorkerStarted(ctx context.Context, wid id.WorkerID, elapsed time.Duration) error
}

// WorkerStopping is called before the engine is stopped. force is true
// for a kill.
type WorkerStopping interface {
	OnWorkerStopping(ctx context.Context, wid id.WorkerID, force bool) error
}

// WorkerStopped is called after the engine has stopped.
type WorkerStopped interface {
	OnWorkerStopped(ctx context.Context, wid id.WorkerID, elapsed time.Duration) error
}

// WorkerFaulted is called when starting or stopping the engine failed.
type WorkerFaulted interface {
	OnWorkerFaulted(ctx context.Context, wid id.WorkerID, err error) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// PipelineBuilt is called when a dispatch pipeline is frozen.
type PipelineBuilt interface {
	OnPipelineBuilt(ctx context.Context, kind taskhub.Kind, identities []string) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
