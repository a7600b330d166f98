package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/taskhub"
	"github.com/xraph/taskhub/ext"
	"github.com/xraph/taskhub/id"
)

// meterName is the instrumentation scope name for lifecycle metrics.
const meterName = "github.com/xraph/taskhub/observability"

// Compile-time interface checks.
var (
	_ ext.Extension      = (*MetricsExtension)(nil)
	_ ext.WorkerStarted  = (*MetricsExtension)(nil)
	_ ext.WorkerStopping = (*MetricsExtension)(nil)
	_ ext.WorkerStopped  = (*MetricsExtension)(nil)
	_ ext.WorkerFaulted  = (*MetricsExtension)(nil)
	_ ext.PipelineBuilt  = (*MetricsExtension)(nil)
)

// MetricsExtension records worker lifecycle metrics. Register it with an
// ext.Registry to track starts, stops, kills and faults.
type MetricsExtension struct {
	WorkerStarted  metric.Int64Counter
	WorkerStopped  metric.Int64Counter
	WorkerKilled   metric.Int64Counter
	WorkerFaulted  metric.Int64Counter
	PipelineBuilt  metric.Int64Counter
	TransitionTime metric.Float64Histogram
}

// NewMetricsExtension creates a MetricsExtension on the global
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension on meter.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	// The OTel API returns noop instruments on error.
	started, _ := meter.Int64Counter("taskhub.worker.started",
		metric.WithDescription("Worker starts that reached Running"))
	stopped, _ := meter.Int64Counter("taskhub.worker.stopped",
		metric.WithDescription("Worker stops that reached Stopped"))
	killed, _ := meter.Int64Counter("taskhub.worker.killed",
		metric.WithDescription("Forced worker stops requested"))
	faulted, _ := meter.Int64Counter("taskhub.worker.faulted",
		metric.WithDescription("Worker lifecycle transitions that failed"))
	built, _ := meter.Int64Counter("taskhub.pipeline.built",
		metric.WithDescription("Dispatch pipelines frozen"))
	transition, _ := meter.Float64Histogram("taskhub.worker.transition.duration",
		metric.WithDescription("Duration of worker start and stop in seconds"),
		metric.WithUnit("s"))

	return &MetricsExtension{
		WorkerStarted:  started,
		WorkerStopped:  stopped,
		WorkerKilled:   killed,
		WorkerFaulted:  faulted,
		PipelineBuilt:  built,
		TransitionTime: transition,
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnWorkerStarted implements ext.WorkerStarted.
func (m *MetricsExtension) OnWorkerStarted(ctx context.Context, _ id.WorkerID, elapsed time.Duration) error {
	m.WorkerStarted.Add(ctx, 1)
	m.TransitionTime.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("transition", "start")))
	return nil
}

// OnWorkerStopping implements ext.WorkerStopping.
func (m *MetricsExtension) OnWorkerStopping(ctx context.Context, _ id.WorkerID, force bool) error {
	if force {
		m.WorkerKilled.Add(ctx, 1)
	}
	return nil
}

// OnWorkerStopped implements ext.WorkerStopped.
func (m *MetricsExtension) OnWorkerStopped(ctx context.Context, _ id.WorkerID, elapsed time.Duration) error {
	m.WorkerStopped.Add(ctx, 1)
	m.TransitionTime.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("transition", "stop")))
	return nil
}

// OnWorkerFaulted implements ext.WorkerFaulted.
func (m *MetricsExtension) OnWorkerFaulted(ctx context.Context, _ id.WorkerID, _ error) error {
	m.WorkerFaulted.Add(ctx, 1)
	return nil
}

// OnPipelineBuilt implements ext.PipelineBuilt.
func (m *MetricsExtension) OnPipelineBuilt(ctx context.Context, kind taskhub.Kind, _ []string) error {
	m.PipelineBuilt.Add(ctx, 1, metric.WithAttributes(attribute.String("task_kind", string(kind))))
	return nil
}
