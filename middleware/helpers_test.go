package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/taskhub/id"
	mw "github.com/xraph/taskhub/middleware"
	"github.com/xraph/taskhub/task"
)

func setupTestTracer() (*tracetest.SpanRecorder, trace.Tracer) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return sr, tp.Tracer("test")
}

func setupTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func newBufferLogger() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// greeter is a test activity.
type greeter struct {
	task.Base
	runs int
}

func (g *greeter) Run(_ context.Context, input []byte) ([]byte, error) {
	g.runs++
	g.Logger().Info("sending greeting")
	return append([]byte("hello "), input...), nil
}

// hello is a test orchestration.
type hello struct {
	task.Base
}

func (h *hello) Run(_ context.Context, _ *task.RuntimeState, input []byte) ([]byte, error) {
	h.Logger().Info("orchestration step")
	return input, nil
}

func newTaskRegistry(t *testing.T) *task.Registry {
	t.Helper()
	reg := task.NewRegistry()
	if err := reg.AddActivity(task.NewActivity("SendGreeting", "1", func() *greeter { return &greeter{} })); err != nil {
		t.Fatalf("AddActivity: %v", err)
	}
	if err := reg.AddOrchestration(task.NewOrchestration("Hello", "1", func() *hello { return &hello{} })); err != nil {
		t.Fatalf("AddOrchestration: %v", err)
	}
	return reg
}

func newActivityDispatch(t *testing.T) (*mw.DispatchContext, *task.ScheduledEvent, *task.ActivityInstance) {
	t.Helper()
	inst, err := newTaskRegistry(t).NewActivityInstance("SendGreeting", "1")
	if err != nil {
		t.Fatalf("NewActivityInstance: %v", err)
	}
	ev := &task.ScheduledEvent{
		EventID:     1,
		Name:        "SendGreeting",
		Version:     "1",
		Input:       []byte("world"),
		InstanceID:  id.NewInstanceID(),
		ExecutionID: id.NewExecutionID(),
	}
	return mw.NewActivityContext(ev, inst), ev, inst
}

func newOrchestrationDispatch(t *testing.T) (*mw.DispatchContext, *task.RuntimeState, *task.OrchestrationInstance) {
	t.Helper()
	inst, err := newTaskRegistry(t).NewOrchestrationInstance("Hello", "1")
	if err != nil {
		t.Fatalf("NewOrchestrationInstance: %v", err)
	}
	state := task.NewRuntimeState("Hello", "1", id.NewInstanceID(), id.NewExecutionID())
	state.Input = []byte("input")
	return mw.NewOrchestrationContext(state, inst), state, inst
}

func freeze(t *testing.T, terminal mw.Next, ds ...mw.Descriptor) *mw.Pipeline {
	t.Helper()
	p, err := mw.NewRegistry(ds...).Freeze(terminal)
	if err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	return p
}

func noop(context.Context, *mw.DispatchContext) error { return nil }
