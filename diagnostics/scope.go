package diagnostics

import (
	"context"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/taskhub"
	"github.com/xraph/taskhub/id"
)

// meterName is the instrumentation scope name for diagnostics metrics.
const meterName = "github.com/xraph/taskhub/diagnostics"

// Scopes hands out dispatch-scoped diagnostics. It is safe for concurrent
// use by any number of in-flight dispatches.
type Scopes struct {
	logger *slog.Logger
	active atomic.Int64

	activeGauge metric.Int64UpDownCounter
	opened      metric.Int64Counter
}

// ScopesOption configures Scopes.
type ScopesOption func(*scopesConfig)

type scopesConfig struct {
	meter metric.Meter
}

// WithMeter records scope metrics on the given meter instead of the
// global MeterProvider.
func WithMeter(m metric.Meter) ScopesOption {
	return func(c *scopesConfig) { c.meter = m }
}

// NewScopes creates a scope factory that derives scope loggers from logger.
// A nil logger means slog.Default().
func NewScopes(logger *slog.Logger, opts ...ScopesOption) *Scopes {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := scopesConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.meter == nil {
		cfg.meter = otel.Meter(meterName)
	}

	// The OTel API returns noop instruments on error.
	activeGauge, _ := cfg.meter.Int64UpDownCounter(
		"taskhub.diagnostics.scopes.active",
		metric.WithDescription("Number of open dispatch diagnostics scopes"),
		metric.WithUnit("{scope}"),
	)
	opened, _ := cfg.meter.Int64Counter(
		"taskhub.diagnostics.scopes.opened",
		metric.WithDescription("Total dispatch diagnostics scopes opened"),
		metric.WithUnit("{scope}"),
	)

	return &Scopes{
		logger:      logger,
		activeGauge: activeGauge,
		opened:      opened,
	}
}

// Begin opens a scope tagged with the task kind, name and version. The
// caller must Close it on every exit path, typically with defer.
func (s *Scopes) Begin(ctx context.Context, kind taskhub.Kind, name, version string) *Scope {
	sid := id.NewScopeID()
	attrs := metric.WithAttributes(
		attribute.String("task_kind", string(kind)),
		attribute.String("task_name", name),
	)

	s.active.Add(1)
	s.activeGauge.Add(ctx, 1, attrs)
	s.opened.Add(ctx, 1, attrs)

	return &Scope{
		ID:      sid,
		Kind:    kind,
		Name:    name,
		Version: version,
		owner:   s,
		attrs:   attrs,
		logger: s.logger.With(
			slog.String("scope_id", sid.String()),
			slog.String("task_kind", string(kind)),
			slog.String("task_name", name),
			slog.String("task_version", version),
		),
	}
}

// Active returns the number of scopes currently open.
func (s *Scopes) Active() int64 { return s.active.Load() }

// Logger returns the root logger scopes derive from.
func (s *Scopes) Logger() *slog.Logger { return s.logger }

// Scope is the diagnostics state of one dispatch.
type Scope struct {
	ID      id.ScopeID
	Kind    taskhub.Kind
	Name    string
	Version string

	owner  *Scopes
	attrs  metric.MeasurementOption
	logger *slog.Logger
	closed atomic.Bool
}

// Logger returns the logger tagged with this scope's identity.
func (sc *Scope) Logger() *slog.Logger { return sc.logger }

// Close releases the scope. Only the first call has an effect.
func (sc *Scope) Close() {
	if !sc.closed.CompareAndSwap(false, true) {
		return
	}
	sc.owner.active.Add(-1)
	sc.owner.activeGauge.Add(context.Background(), -1, sc.attrs)
}

// Closed reports whether Close has been called.
func (sc *Scope) Closed() bool { return sc.closed.Load() }
