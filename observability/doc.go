// Package observability provides an OpenTelemetry metrics extension for
// the task hub. The MetricsExtension implements worker lifecycle hooks to
// record start, stop, fault and pipeline counters, and the duration of
// start and stop transitions.
//
// For per-dispatch tracing and metrics, see the middleware package:
// middleware.TraceActivity, middleware.TraceOrchestration and
// middleware.Metrics.
package observability
