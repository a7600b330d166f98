package hosting

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/xraph/taskhub"
	"github.com/xraph/taskhub/ext"
	"github.com/xraph/taskhub/id"
)

// Engine is the lifecycle surface of the external orchestration engine.
type Engine interface {
	// Start begins polling for work items. It returns once the engine is
	// running.
	Start(ctx context.Context) error

	// Stop drains in-flight work. force abandons it.
	Stop(ctx context.Context, force bool) error

	// CreateIfNotExists provisions backing resources. It is idempotent.
	CreateIfNotExists(ctx context.Context) error

	MaxConcurrentActivityWorkItems() int
	MaxConcurrentOrchestrationWorkItems() int
}

// FailureReporter receives lifecycle failures the hosting process must
// treat as fatal.
type FailureReporter interface {
	ReportFailure(err error)
}

// FailureFunc adapts a function to FailureReporter.
type FailureFunc func(err error)

// ReportFailure calls f.
func (f FailureFunc) ReportFailure(err error) { f(err) }

// Worker supervises an Engine. It is safe for concurrent use.
type Worker struct {
	id         id.WorkerID
	engine     Engine
	opts       taskhub.Options
	logger     *slog.Logger
	extensions *ext.Registry
	reporter   FailureReporter

	state atomic.Int32
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithOptions sets the task hub options. Only CreateIfNotExists is read
// by the worker.
func WithOptions(opts taskhub.Options) WorkerOption {
	return func(w *Worker) { w.opts = opts }
}

// WithLogger sets the worker logger.
func WithLogger(l *slog.Logger) WorkerOption {
	return func(w *Worker) { w.logger = l }
}

// WithExtensions sets the registry notified of lifecycle events.
func WithExtensions(r *ext.Registry) WorkerOption {
	return func(w *Worker) { w.extensions = r }
}

// WithFailureReporter sets where start failures are reported.
func WithFailureReporter(r FailureReporter) WorkerOption {
	return func(w *Worker) { w.reporter = r }
}

// WithWorkerID overrides the generated worker ID.
func WithWorkerID(wid id.WorkerID) WorkerOption {
	return func(w *Worker) { w.id = wid }
}

// NewWorker creates a worker for engine in StateNotStarted.
func NewWorker(engine Engine, opts ...WorkerOption) (*Worker, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: engine", taskhub.ErrNilArgument)
	}
	w := &Worker{
		id:     id.NewWorkerID(),
		engine: engine,
		opts:   taskhub.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.extensions == nil {
		w.extensions = ext.NewRegistry(w.logger)
	}
	w.logger = w.logger.With(slog.String("worker_id", w.id.String()))
	return w, nil
}

// ID returns the worker ID.
func (w *Worker) ID() id.WorkerID { return w.id }

// State returns the current lifecycle state.
func (w *Worker) State() State { return State(w.state.Load()) }

// Engine returns the supervised engine.
func (w *Worker) Engine() Engine { return w.engine }

// Start provisions resources when configured and starts the engine. It
// may be called once; later or concurrent calls fail with
// taskhub.ErrAlreadyStarted. A failed start moves the worker to
// StateFaulted and is reported to the failure reporter.
func (w *Worker) Start(ctx context.Context) error {
	if !w.transition(StateNotStarted, StateStarting) {
		return fmt.Errorf("%w: worker is %s", taskhub.ErrAlreadyStarted, w.State())
	}

	w.extensions.EmitWorkerStarting(ctx, w.id)
	start := time.Now()

	if w.opts.CreateIfNotExists {
		if err := w.engine.CreateIfNotExists(ctx); err != nil {
			return w.fault(ctx, "start", fmt.Errorf("taskhub: create resources: %w", err), true)
		}
		w.logger.Debug("task hub resources ensured")
	}

	if err := w.engine.Start(ctx); err != nil {
		return w.fault(ctx, "start", fmt.Errorf("taskhub: start engine: %w", err), true)
	}

	if !w.transition(StateStarting, StateRunning) {
		return fmt.Errorf("%w: %s during start", taskhub.ErrInvalidState, w.State())
	}

	elapsed := time.Since(start)
	w.logger.Info("worker started",
		slog.Int("max_concurrent_activities", w.engine.MaxConcurrentActivityWorkItems()),
		slog.Int("max_concurrent_orchestrations", w.engine.MaxConcurrentOrchestrationWorkItems()),
		slog.Duration("elapsed", elapsed),
	)
	w.extensions.EmitWorkerStarted(ctx, w.id, elapsed)
	return nil
}

// Stop gracefully stops the engine. Cancelling ctx does not abort the
// stop: the engine always drains. Use Kill to abandon in-flight work.
// Stopping a stopped worker is a no-op.
func (w *Worker) Stop(ctx context.Context) error { return w.stop(ctx, false) }

// Kill stops the engine with the force flag. It may also escalate a
// graceful stop that is still in progress.
func (w *Worker) Kill(ctx context.Context) error { return w.stop(ctx, true) }

func (w *Worker) stop(ctx context.Context, force bool) error {
	if !w.transition(StateRunning, StateStopping) {
		switch s := w.State(); {
		case s == StateStopped:
			return nil
		case s == StateStopping && force:
			// escalate
		default:
			return fmt.Errorf("%w: worker is %s", taskhub.ErrNotRunning, s)
		}
	}

	w.extensions.EmitWorkerStopping(ctx, w.id, force)
	start := time.Now()

	done := make(chan error, 1)
	go func() { done <- w.engine.Stop(context.WithoutCancel(ctx), force) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		w.logger.Warn("stop cancelled by caller, waiting for engine to drain",
			slog.Bool("force", force),
			slog.String("reason", context.Cause(ctx).Error()),
		)
		err = <-done
	}

	if err != nil {
		return w.fault(ctx, "stop", fmt.Errorf("taskhub: stop engine: %w", err), false)
	}

	if !w.transition(StateStopping, StateStopped) {
		return nil
	}
	elapsed := time.Since(start)
	w.logger.Info("worker stopped", slog.Bool("force", force), slog.Duration("elapsed", elapsed))
	w.extensions.EmitWorkerStopped(ctx, w.id, elapsed)
	return nil
}

func (w *Worker) transition(from, to State) bool {
	return w.state.CompareAndSwap(int32(from), int32(to))
}

// fault moves the worker to StateFaulted and notifies, unless the worker
// already reached a terminal state. Only start failures are reported as
// fatal.
func (w *Worker) fault(ctx context.Context, phase string, err error, fatal bool) error {
	for {
		cur := w.state.Load()
		if State(cur).Terminal() {
			w.logger.Debug("ignoring failure of finished worker",
				slog.String("phase", phase),
				slog.String("state", State(cur).String()),
				slog.String("error", err.Error()),
			)
			return err
		}
		if w.state.CompareAndSwap(cur, int32(StateFaulted)) {
			break
		}
	}

	w.logger.Error("worker faulted", slog.String("phase", phase), slog.String("error", err.Error()))
	w.extensions.EmitWorkerFaulted(ctx, w.id, err)
	if fatal && w.reporter != nil {
		w.reporter.ReportFailure(err)
	}
	return err
}
