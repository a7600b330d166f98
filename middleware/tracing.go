package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/taskhub/tracing"
)

// ActivityTracer names and tags the ambient span of an activity dispatch.
// Without a recording span it is a pass-through.
type ActivityTracer struct{}

// TraceActivity returns the activity tracing handler.
func TraceActivity() *ActivityTracer { return &ActivityTracer{} }

// Invoke renames the current span to "activity:name@(version)" and adds
// the standard task attributes.
func (*ActivityTracer) Invoke(ctx context.Context, dc *DispatchContext, next Next) error {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return next(ctx, dc)
	}

	t := describe(dc)
	span.SetName(tracing.SpanName(t.Kind, t.Name, t.Version))
	span.SetAttributes(tracing.Attributes(t)...)

	err := next(ctx, dc)
	recordOutcome(span, err)
	return err
}

// OrchestrationTracer names and tags the span of an orchestration
// dispatch. When the dispatch arrives without a span it rejoins the trace
// captured for the instance by an earlier dispatch.
type OrchestrationTracer struct {
	tracer trace.Tracer
	store  *tracing.ContextStore
}

// TraceOrchestration returns the orchestration tracing handler using the
// global TracerProvider. A nil store gets a private one.
func TraceOrchestration(store *tracing.ContextStore) *OrchestrationTracer {
	return TraceOrchestrationWithTracer(otel.Tracer(tracing.TracerName), store)
}

// TraceOrchestrationWithTracer is like TraceOrchestration with an explicit
// tracer, used to start spans for restored trace contexts.
func TraceOrchestrationWithTracer(tracer trace.Tracer, store *tracing.ContextStore) *OrchestrationTracer {
	if store == nil {
		store = tracing.NewContextStore()
	}
	return &OrchestrationTracer{tracer: tracer, store: store}
}

// Store returns the trace-context side channel.
func (o *OrchestrationTracer) Store() *tracing.ContextStore { return o.store }

// Invoke prefers the ambient span. Otherwise a captured context is
// restored under a span that lives exactly as long as the dispatch. The
// captured context is dropped once the instance completes.
func (o *OrchestrationTracer) Invoke(ctx context.Context, dc *DispatchContext, next Next) error {
	t := describe(dc)
	name := tracing.SpanName(t.Kind, t.Name, t.Version)
	if state, ok := Lookup(dc, RuntimeStateKey); ok {
		defer func() {
			if state.IsCompleted() {
				o.store.Forget(t.InstanceID)
			}
		}()
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		o.store.Capture(t.InstanceID, span.SpanContext())
	} else if sc, ok := o.store.Lookup(t.InstanceID); ok {
		ctx, span = o.tracer.Start(
			trace.ContextWithRemoteSpanContext(ctx, sc), name,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()
	}

	if !span.IsRecording() {
		return next(ctx, dc)
	}
	span.SetName(name)
	span.SetAttributes(tracing.Attributes(t)...)

	err := next(ctx, dc)
	recordOutcome(span, err)
	return err
}

func recordOutcome(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
