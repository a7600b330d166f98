package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/taskhub"
	"github.com/xraph/taskhub/ext"
	"github.com/xraph/taskhub/id"
)

// Compile-time interface checks.
var (
	_ ext.Extension      = (*Extension)(nil)
	_ ext.WorkerStarting = (*Extension)(nil)
	_ ext.WorkerStarted  = (*Extension)(nil)
	_ ext.WorkerStopping = (*Extension)(nil)
	_ ext.WorkerStopped  = (*Extension)(nil)
	_ ext.WorkerFaulted  = (*Extension)(nil)
	_ ext.PipelineBuilt  = (*Extension)(nil)
	_ ext.Shutdown       = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit trail entry.
type AuditEvent struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// LogRecorder writes audit events as structured log records.
func LogRecorder(logger *slog.Logger) Recorder {
	return RecorderFunc(func(ctx context.Context, evt *AuditEvent) error {
		attrs := []slog.Attr{
			slog.String("action", evt.Action),
			slog.String("resource", evt.Resource),
			slog.String("resource_id", evt.ResourceID),
			slog.String("category", evt.Category),
			slog.String("outcome", evt.Outcome),
			slog.String("severity", evt.Severity),
		}
		if evt.Reason != "" {
			attrs = append(attrs, slog.String("reason", evt.Reason))
		}
		for k, v := range evt.Metadata {
			attrs = append(attrs, slog.Any(k, v))
		}
		level := slog.LevelInfo
		switch evt.Severity {
		case SeverityWarning:
			level = slog.LevelWarn
		case SeverityCritical:
			level = slog.LevelError
		}
		logger.LogAttrs(ctx, level, "audit", attrs...)
		return nil
	})
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through r.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Worker lifecycle hooks ──────────────────────────

// OnWorkerStarting implements ext.WorkerStarting.
func (e *Extension) OnWorkerStarting(ctx context.Context, wid id.WorkerID) error {
	return e.record(ctx, ActionWorkerStarting, SeverityInfo, OutcomeSuccess,
		ResourceWorker, wid.String(), CategoryWorker, nil)
}

// OnWorkerStarted implements ext.WorkerStarted.
func (e *Extension) OnWorkerStarted(ctx context.Context, wid id.WorkerID, elapsed time.Duration) error {
	return e.record(ctx, ActionWorkerStarted, SeverityInfo, OutcomeSuccess,
		ResourceWorker, wid.String(), CategoryWorker, nil,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnWorkerStopping implements ext.WorkerStopping. A forced stop is
// recorded as a kill.
func (e *Extension) OnWorkerStopping(ctx context.Context, wid id.WorkerID, force bool) error {
	if force {
		return e.record(ctx, ActionWorkerKilled, SeverityWarning, OutcomeSuccess,
			ResourceWorker, wid.String(), CategoryWorker, nil)
	}
	return e.record(ctx, ActionWorkerStopping, SeverityInfo, OutcomeSuccess,
		ResourceWorker, wid.String(), CategoryWorker, nil)
}

// OnWorkerStopped implements ext.WorkerStopped.
func (e *Extension) OnWorkerStopped(ctx context.Context, wid id.WorkerID, elapsed time.Duration) error {
	return e.record(ctx, ActionWorkerStopped, SeverityInfo, OutcomeSuccess,
		ResourceWorker, wid.String(), CategoryWorker, nil,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnWorkerFaulted implements ext.WorkerFaulted.
func (e *Extension) OnWorkerFaulted(ctx context.Context, wid id.WorkerID, cause error) error {
	return e.record(ctx, ActionWorkerFaulted, SeverityCritical, OutcomeFailure,
		ResourceWorker, wid.String(), CategoryWorker, cause)
}

// ── Other lifecycle hooks ───────────────────────────

// OnPipelineBuilt implements ext.PipelineBuilt.
func (e *Extension) OnPipelineBuilt(ctx context.Context, kind taskhub.Kind, identities []string) error {
	return e.record(ctx, ActionPipelineBuilt, SeverityInfo, OutcomeSuccess,
		ResourcePipeline, string(kind), CategoryPipeline, nil,
		"handlers", identities,
	)
}

// OnShutdown implements ext.Shutdown.
func (e *Extension) OnShutdown(ctx context.Context) error {
	return e.record(ctx, ActionHostShutdown, SeverityInfo, OutcomeSuccess,
		ResourceHost, "", CategoryHost, nil)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			slog.String("action", action),
			slog.String("resource_id", resourceID),
			slog.String("error", recErr.Error()),
		)
	}
	return nil
}
