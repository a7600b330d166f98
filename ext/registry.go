package ext

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/taskhub"
	"github.com/xraph/taskhub/id"
)

// entry pairs a hook implementation with the extension name captured at
// registration time.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. Extensions are type-cached at registration so emit calls only
// visit implementors. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	extensions []Extension
	logger     *slog.Logger

	workerStarting []entry[WorkerStarting]
	workerStarted  []entry[WorkerStarted]
	workerStopping []entry[WorkerStopping]
	workerStopped  []entry[WorkerStopped]
	workerFaulted  []entry[WorkerFaulted]
	pipelineBuilt  []entry[PipelineBuilt]
	shutdown       []entry[Shutdown]
}

// NewRegistry creates an extension registry. A nil logger means
// slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and caches it under every hook it
// implements. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(WorkerStarting); ok {
		r.workerStarting = append(r.workerStarting, entry[WorkerStarting]{name, h})
	}
	if h, ok := e.(WorkerStarted); ok {
		r.workerStarted = append(r.workerStarted, entry[WorkerStarted]{name, h})
	}
	if h, ok := e.(WorkerStopping); ok {
		r.workerStopping = append(r.workerStopping, entry[WorkerStopping]{name, h})
	}
	if h, ok := e.(WorkerStopped); ok {
		r.workerStopped = append(r.workerStopped, entry[WorkerStopped]{name, h})
	}
	if h, ok := e.(WorkerFaulted); ok {
		r.workerFaulted = append(r.workerFaulted, entry[WorkerFaulted]{name, h})
	}
	if h, ok := e.(PipelineBuilt); ok {
		r.pipelineBuilt = append(r.pipelineBuilt, entry[PipelineBuilt]{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, entry[Shutdown]{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Extension(nil), r.extensions...)
}

// ──────────────────────────────────────────────────
// Worker event emitters
// ──────────────────────────────────────────────────

// EmitWorkerStarting notifies all extensions that implement WorkerStarting.
func (r *Registry) EmitWorkerStarting(ctx context.Context, wid id.WorkerID) {
	r.mu.RLock()
	hooks := r.workerStarting
	r.mu.RUnlock()

	for _, e := range hooks {
		if err := e.hook.OnWorkerStarting(ctx, wid); err != nil {
			r.logHookError("OnWorkerStarting", e.name, err)
		}
	}
}

// EmitWorkerStarted notifies all extensions that implement WorkerStarted.
func (r *Registry) EmitWorkerStarted(ctx context.Context, wid id.WorkerID, elapsed time.Duration) {
	r.mu.RLock()
	hooks := r.workerStarted
	r.mu.RUnlock()

	for _, e := range hooks {
		if err := e.hook.OnWorkerStarted(ctx, wid, elapsed); err != nil {
			r.logHookError("OnWorkerStarted", e.name, err)
		}
	}
}

// EmitWorkerStopping notifies all extensions that implement WorkerStopping.
func (r *Registry) EmitWorkerStopping(ctx context.Context, wid id.WorkerID, force bool) {
	r.mu.RLock()
	hooks := r.workerStopping
	r.mu.RUnlock()

	for _, e := range hooks {
		if err := e.hook.OnWorkerStopping(ctx, wid, force); err != nil {
			r.logHookError("OnWorkerStopping", e.name, err)
		}
	}
}

// EmitWorkerStopped notifies all extensions that implement WorkerStopped.
func (r *Registry) EmitWorkerStopped(ctx context.Context, wid id.WorkerID, elapsed time.Duration) {
	r.mu.RLock()
	hooks := r.workerStopped
	r.mu.RUnlock()

	for _, e := range hooks {
		if err := e.hook.OnWorkerStopped(ctx, wid, elapsed); err != nil {
			r.logHookError("OnWorkerStopped", e.name, err)
		}
	}
}

// EmitWorkerFaulted notifies all extensions that implement WorkerFaulted.
func (r *Registry) EmitWorkerFaulted(ctx context.Context, wid id.WorkerID, cause error) {
	r.mu.RLock()
	hooks := r.workerFaulted
	r.mu.RUnlock()

	for _, e := range hooks {
		if err := e.hook.OnWorkerFaulted(ctx, wid, cause); err != nil {
			r.logHookError("OnWorkerFaulted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitPipelineBuilt notifies all extensions that implement PipelineBuilt.
func (r *Registry) EmitPipelineBuilt(ctx context.Context, kind taskhub.Kind, identities []string) {
	r.mu.RLock()
	hooks := r.pipelineBuilt
	r.mu.RUnlock()

	for _, e := range hooks {
		if err := e.hook.OnPipelineBuilt(ctx, kind, identities); err != nil {
			r.logHookError("OnPipelineBuilt", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.shutdown
	r.mu.RUnlock()

	for _, e := range hooks {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
