package middleware_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/taskhub/diagnostics"
	mw "github.com/xraph/taskhub/middleware"
	"github.com/xraph/taskhub/tracing"
)

func TestTraceActivity_EndToEnd(t *testing.T) {
	sr, tracer := setupTestTracer()

	reg := mw.NewRegistry()
	if err := reg.Add(mw.Singleton(mw.ActivityData(diagnostics.NewScopes(nil), nil))); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := reg.Insert(0, mw.Singleton(mw.TraceActivity())); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	p, err := reg.Freeze(mw.RunActivity)
	if err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	dc, ev, _ := newActivityDispatch(t)
	ctx, span := tracer.Start(context.Background(), "engine.dispatch", trace.WithSpanKind(trace.SpanKindServer))
	err = p.Dispatch(ctx, dc)
	span.End()
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "activity:SendGreeting@(1)" {
		t.Errorf("span name = %q", spans[0].Name())
	}

	got := make(map[string]string)
	for _, a := range spans[0].Attributes() {
		got[string(a.Key)] = a.Value.AsString()
	}
	want := map[string]string{
		"type":              "activity",
		"task.name":         "SendGreeting",
		"task.version":      "1",
		"kind":              "server",
		"task.instance_id":  ev.InstanceID.String(),
		"task.execution_id": ev.ExecutionID.String(),
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("attribute %q = %q, want %q", k, got[k], v)
		}
	}
}

func TestTraceActivity_NoSpanIsPassThrough(t *testing.T) {
	sr, _ := setupTestTracer()
	p := freeze(t, mw.RunActivity, mw.Singleton(mw.TraceActivity()))

	dc, _, _ := newActivityDispatch(t)
	if err := p.Dispatch(context.Background(), dc); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(sr.Ended()) != 0 {
		t.Errorf("expected no spans, got %d", len(sr.Ended()))
	}
}

func TestTraceActivity_RecordsError(t *testing.T) {
	sr, tracer := setupTestTracer()
	boom := errors.New("boom")
	p := freeze(t, func(context.Context, *mw.DispatchContext) error { return boom },
		mw.Singleton(mw.TraceActivity()))

	dc, _, _ := newActivityDispatch(t)
	ctx, span := tracer.Start(context.Background(), "engine.dispatch")
	_ = p.Dispatch(ctx, dc)
	span.End()

	s := sr.Ended()[0]
	if s.Status().Code != codes.Error || s.Status().Description != "boom" {
		t.Errorf("status = %+v", s.Status())
	}
	if len(s.Events()) == 0 || s.Events()[0].Name != "exception" {
		t.Error("expected exception event")
	}
}

func TestTraceOrchestration_CapturesAmbientSpan(t *testing.T) {
	sr, tracer := setupTestTracer()
	store := tracing.NewContextStore()
	p := freeze(t, mw.RunOrchestration, mw.Singleton(mw.TraceOrchestrationWithTracer(tracer, store)))

	dc, state, _ := newOrchestrationDispatch(t)
	ctx, span := tracer.Start(context.Background(), "engine.dispatch")
	if err := p.Dispatch(ctx, dc); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	span.End()

	captured, ok := store.Lookup(state.InstanceID.String())
	if !ok || !captured.Equal(span.SpanContext()) {
		t.Errorf("expected ambient span context captured, got %v %v", captured, ok)
	}
	if spans := sr.Ended(); len(spans) != 1 || spans[0].Name() != "orchestration:Hello@(1)" {
		t.Errorf("unexpected spans %v", spans)
	}
}

func TestTraceOrchestration_RestoresCapturedContext(t *testing.T) {
	sr, tracer := setupTestTracer()
	store := tracing.NewContextStore()
	tr := mw.TraceOrchestrationWithTracer(tracer, store)
	boom := errors.New("boom")
	p := freeze(t, func(context.Context, *mw.DispatchContext) error { return boom }, mw.Singleton(tr))

	dc, state, _ := newOrchestrationDispatch(t)
	_, earlier := tracer.Start(context.Background(), "first episode")
	earlier.End()
	store.Capture(state.InstanceID.String(), earlier.SpanContext())

	if err := p.Dispatch(context.Background(), dc); err != boom {
		t.Fatalf("expected boom, got %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected restored span ended exactly once, got %d spans", len(spans))
	}
	restored := spans[1]
	if restored.Name() != "orchestration:Hello@(1)" {
		t.Errorf("span name = %q", restored.Name())
	}
	if restored.Parent().SpanID() != earlier.SpanContext().SpanID() {
		t.Error("restored span must be parented on the captured context")
	}
	if restored.SpanContext().TraceID() != earlier.SpanContext().TraceID() {
		t.Error("restored span must join the captured trace")
	}
	if restored.SpanKind() != trace.SpanKindServer {
		t.Errorf("span kind = %v", restored.SpanKind())
	}
	if restored.Status().Code != codes.Error {
		t.Errorf("status = %+v", restored.Status())
	}
}

func TestTraceOrchestration_AmbientWinsOverStaleCapture(t *testing.T) {
	sr, tracer := setupTestTracer()
	store := tracing.NewContextStore()
	p := freeze(t, mw.RunOrchestration, mw.Singleton(mw.TraceOrchestrationWithTracer(tracer, store)))

	dc, state, _ := newOrchestrationDispatch(t)
	_, stale := tracer.Start(context.Background(), "stale")
	stale.End()
	store.Capture(state.InstanceID.String(), stale.SpanContext())

	ctx, span := tracer.Start(context.Background(), "engine.dispatch")
	if err := p.Dispatch(ctx, dc); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	span.End()

	if got := len(sr.Ended()); got != 2 {
		t.Errorf("expected no extra span, got %d ended", got)
	}
	captured, _ := store.Lookup(state.InstanceID.String())
	if !captured.Equal(span.SpanContext()) {
		t.Error("expected capture refreshed to the ambient span")
	}
}

func TestTraceOrchestration_NothingToRestore(t *testing.T) {
	sr, tracer := setupTestTracer()
	tr := mw.TraceOrchestrationWithTracer(tracer, nil)
	p := freeze(t, mw.RunOrchestration, mw.Singleton(tr))

	dc, _, _ := newOrchestrationDispatch(t)
	if err := p.Dispatch(context.Background(), dc); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(sr.Ended()) != 0 {
		t.Errorf("expected no spans, got %d", len(sr.Ended()))
	}
	if tr.Store().Len() != 0 {
		t.Error("nothing must be captured without a span")
	}
}

func TestTraceOrchestration_ForgetsCompletedInstances(t *testing.T) {
	_, tracer := setupTestTracer()
	store := tracing.NewContextStore()
	complete := func(ctx context.Context, dc *mw.DispatchContext) error {
		if err := mw.RunOrchestration(ctx, dc); err != nil {
			return err
		}
		mw.MustGet(dc, mw.RuntimeStateKey).Complete()
		return nil
	}
	p := freeze(t, complete, mw.Singleton(mw.TraceOrchestrationWithTracer(tracer, store)))

	for range 1000 {
		dc, _, _ := newOrchestrationDispatch(t)
		ctx, span := tracer.Start(context.Background(), "engine.dispatch")
		if err := p.Dispatch(ctx, dc); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
		span.End()
	}

	if n := store.Len(); n != 0 {
		t.Errorf("expected store drained after completion, got %d entries", n)
	}
}

func TestTraceOrchestration_KeepsRunningInstances(t *testing.T) {
	_, tracer := setupTestTracer()
	store := tracing.NewContextStore()
	p := freeze(t, mw.RunOrchestration, mw.Singleton(mw.TraceOrchestrationWithTracer(tracer, store)))

	dc, state, _ := newOrchestrationDispatch(t)
	ctx, span := tracer.Start(context.Background(), "episode 1")
	if err := p.Dispatch(ctx, dc); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	span.End()
	if store.Len() != 1 {
		t.Fatalf("expected capture for running instance, got %d", store.Len())
	}

	state.Complete()
	if err := p.Dispatch(context.Background(), mw.NewOrchestrationContext(state, mw.MustGet(dc, mw.OrchestrationKey))); err != nil {
		t.Fatalf("final Dispatch: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected capture forgotten after final episode, got %d", store.Len())
	}
}
