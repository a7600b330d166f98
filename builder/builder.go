// Package builder assembles the dispatch pipelines and task registry and
// hands them to the engine.
//
// The builder installs the built-in handlers around whatever middleware
// the application registers. Each activity dispatch runs, outermost
// first:
//
//	tracing → data injection → application middleware → failures → recover → terminal
//
// Orchestration dispatch has the same shape with the replay-aware
// variants.
package builder

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/taskhub"
	"github.com/xraph/taskhub/diagnostics"
	"github.com/xraph/taskhub/ext"
	"github.com/xraph/taskhub/failure"
	"github.com/xraph/taskhub/middleware"
	"github.com/xraph/taskhub/task"
	"github.com/xraph/taskhub/tracing"
)

// Identities of the handlers installed by Build.
const (
	FailuresIdentity = "taskhub.failures"
	RecoverIdentity  = "taskhub.recover"
)

// Configurer is the configuration surface of the engine.
type Configurer interface {
	UseActivityPipeline(p *middleware.Pipeline)
	UseOrchestrationPipeline(p *middleware.Pipeline)
	UseTasks(r *task.Registry)
	UseOptions(opts taskhub.Options)
}

// Terminals is implemented by engines that supply their own terminal
// actions. Engines without it get middleware.RunActivity and
// middleware.RunOrchestration.
type Terminals interface {
	ActivityTerminal() middleware.Next
	OrchestrationTerminal() middleware.Next
}

// Builder accumulates middleware and task registrations.
type Builder struct {
	opts       taskhub.Options
	logger     *slog.Logger
	converter  task.DataConverter
	tracer     trace.Tracer
	store      *tracing.ContextStore
	extensions *ext.Registry

	activities     *middleware.Registry
	orchestrations *middleware.Registry
	tasks          *task.Registry
	built          bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the root logger for dispatch scopes and built-ins.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithOptions sets the task hub options.
func WithOptions(opts taskhub.Options) Option {
	return func(b *Builder) { b.opts = opts }
}

// WithConverter sets the data converter injected into tasks.
func WithConverter(c task.DataConverter) Option {
	return func(b *Builder) { b.converter = c }
}

// WithTracer sets the tracer used to restore orchestration traces.
func WithTracer(t trace.Tracer) Option {
	return func(b *Builder) { b.tracer = t }
}

// WithContextStore shares a trace-context side channel.
func WithContextStore(s *tracing.ContextStore) Option {
	return func(b *Builder) { b.store = s }
}

// WithExtensions sets the registry notified when pipelines are built.
func WithExtensions(r *ext.Registry) Option {
	return func(b *Builder) { b.extensions = r }
}

// New creates a builder. The data-injection handlers are registered
// first so application middleware sees initialized task instances.
func New(opts ...Option) *Builder {
	b := &Builder{
		opts:           taskhub.DefaultOptions(),
		activities:     middleware.NewRegistry(),
		orchestrations: middleware.NewRegistry(),
		tasks:          task.NewRegistry(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.converter == nil {
		b.converter = task.JSONConverter{}
	}
	if b.tracer == nil {
		b.tracer = otel.Tracer(tracing.TracerName)
	}
	if b.store == nil {
		b.store = tracing.NewContextStore()
	}
	if b.extensions == nil {
		b.extensions = ext.NewRegistry(b.logger)
	}

	scopes := diagnostics.NewScopes(b.logger)
	// Registries are empty here; Add cannot fail.
	_ = b.activities.Add(middleware.Singleton(middleware.ActivityData(scopes, b.converter)))
	_ = b.orchestrations.Add(middleware.Singleton(middleware.OrchestrationData(scopes, b.converter)))
	return b
}

// UseActivityMiddleware appends d to the activity pipeline.
func (b *Builder) UseActivityMiddleware(d middleware.Descriptor) error {
	return b.activities.Add(d)
}

// InsertActivityMiddleware places d at position i of the activity
// pipeline. Position 0 wraps everything except tracing.
func (b *Builder) InsertActivityMiddleware(i int, d middleware.Descriptor) error {
	return b.activities.Insert(i, d)
}

// UseOrchestrationMiddleware appends d to the orchestration pipeline.
func (b *Builder) UseOrchestrationMiddleware(d middleware.Descriptor) error {
	return b.orchestrations.Add(d)
}

// InsertOrchestrationMiddleware places d at position i of the
// orchestration pipeline.
func (b *Builder) InsertOrchestrationMiddleware(i int, d middleware.Descriptor) error {
	return b.orchestrations.Insert(i, d)
}

// ActivityMiddleware returns the activity descriptor registry.
func (b *Builder) ActivityMiddleware() *middleware.Registry { return b.activities }

// OrchestrationMiddleware returns the orchestration descriptor registry.
func (b *Builder) OrchestrationMiddleware() *middleware.Registry { return b.orchestrations }

// AddActivity registers an activity type.
func (b *Builder) AddActivity(d *task.ActivityDescriptor) error { return b.tasks.AddActivity(d) }

// AddOrchestration registers an orchestration type.
func (b *Builder) AddOrchestration(d *task.OrchestrationDescriptor) error {
	return b.tasks.AddOrchestration(d)
}

// Tasks returns the task registry.
func (b *Builder) Tasks() *task.Registry { return b.tasks }

// ContextStore returns the trace-context side channel shared with the
// orchestration tracer.
func (b *Builder) ContextStore() *tracing.ContextStore { return b.store }

// Build installs the built-in handlers, freezes both pipelines and hands
// them to engine. It succeeds at most once. A failed Build leaves the
// builder unchanged so it can be corrected and retried; after a
// successful one the middleware registries reject changes.
func (b *Builder) Build(ctx context.Context, engine Configurer) error {
	if engine == nil {
		return fmt.Errorf("%w: engine", taskhub.ErrNilArgument)
	}
	if b.built {
		return taskhub.ErrFrozen
	}

	activityTerminal, orchestrationTerminal := middleware.Next(middleware.RunActivity), middleware.Next(middleware.RunOrchestration)
	if t, ok := engine.(Terminals); ok {
		activityTerminal, orchestrationTerminal = t.ActivityTerminal(), t.OrchestrationTerminal()
	}

	propagator := failure.NewPropagator(b.opts)
	activities, err := b.freeze(b.activities, middleware.Singleton(middleware.TraceActivity()), propagator, activityTerminal)
	if err != nil {
		return fmt.Errorf("taskhub: build activity pipeline: %w", err)
	}
	orchestrations, err := b.freeze(b.orchestrations,
		middleware.Singleton(middleware.TraceOrchestrationWithTracer(b.tracer, b.store)), propagator, orchestrationTerminal)
	if err != nil {
		return fmt.Errorf("taskhub: build orchestration pipeline: %w", err)
	}
	b.built = true
	b.activities.Seal()
	b.orchestrations.Seal()

	engine.UseOptions(b.opts)
	engine.UseTasks(b.tasks)
	engine.UseActivityPipeline(activities)
	engine.UseOrchestrationPipeline(orchestrations)

	b.extensions.EmitPipelineBuilt(ctx, taskhub.KindActivity, activities.Identities())
	b.extensions.EmitPipelineBuilt(ctx, taskhub.KindOrchestration, orchestrations.Identities())
	b.logger.Info("dispatch pipelines built",
		slog.Int("activity_handlers", activities.Len()),
		slog.Int("orchestration_handlers", orchestrations.Len()),
		slog.Any("activities", b.tasks.Names(taskhub.KindActivity)),
		slog.Any("orchestrations", b.tasks.Names(taskhub.KindOrchestration)),
	)
	return nil
}

// freeze composes a copy of reg wrapped in the built-ins. reg itself is
// left untouched.
func (b *Builder) freeze(src *middleware.Registry, tracer middleware.Descriptor, p *failure.Propagator, terminal middleware.Next) (*middleware.Pipeline, error) {
	reg := middleware.NewRegistry(src.Descriptors()...)
	if err := reg.Insert(0, tracer); err != nil {
		return nil, err
	}
	if err := reg.Add(middleware.Named(FailuresIdentity, middleware.Failures(p))); err != nil {
		return nil, err
	}
	if err := reg.Add(middleware.Named(RecoverIdentity, middleware.Recover(b.logger))); err != nil {
		return nil, err
	}
	return reg.Freeze(terminal)
}
