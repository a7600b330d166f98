package middleware

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for dispatch metrics.
const meterName = "github.com/xraph/taskhub"

// Metrics returns a handler that records per-task dispatch metrics using
// the global OTel MeterProvider.
//
// Instruments:
//   - taskhub.dispatch.duration (Float64Histogram): seconds, with
//     task_kind, task_name, status ("ok" or "error") and replaying
//   - taskhub.dispatch.executions (Int64Counter): same attributes
func Metrics() Handler {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Handler {
	// The OTel API returns noop instruments on error.
	duration, _ := meter.Float64Histogram(
		"taskhub.dispatch.duration",
		metric.WithDescription("Duration of task dispatch in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"taskhub.dispatch.executions",
		metric.WithDescription("Total number of task dispatches"),
		metric.WithUnit("{execution}"),
	)

	return HandlerFunc(func(ctx context.Context, dc *DispatchContext, next Next) error {
		start := time.Now()
		err := next(ctx, dc)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}
		replaying := false
		if rs := replayState(dc); rs != nil {
			replaying = rs.IsReplaying()
		}

		attrs := metric.WithAttributes(
			attribute.String("task_kind", string(dc.Kind())),
			attribute.String("task_name", describe(dc).Name),
			attribute.String("status", status),
			attribute.String("replaying", strconv.FormatBool(replaying)),
		)
		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return err
	})
}
