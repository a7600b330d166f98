package middleware

import (
	"context"
	"log/slog"

	"github.com/xraph/taskhub"
	"github.com/xraph/taskhub/diagnostics"
	"github.com/xraph/taskhub/task"
)

// ActivityInjector prepares activity instances before they run.
type ActivityInjector struct {
	scopes    *diagnostics.Scopes
	converter task.DataConverter
}

// ActivityData returns the activity data-injection handler. A nil
// converter means JSON.
func ActivityData(scopes *diagnostics.Scopes, converter task.DataConverter) *ActivityInjector {
	if scopes == nil {
		scopes = diagnostics.NewScopes(nil)
	}
	if converter == nil {
		converter = task.JSONConverter{}
	}
	return &ActivityInjector{scopes: scopes, converter: converter}
}

// Invoke opens a diagnostics scope for the dispatch and initializes the
// activity instance. The scope is closed on every exit path.
func (a *ActivityInjector) Invoke(ctx context.Context, dc *DispatchContext, next Next) error {
	ev, err := Get(dc, ScheduledEventKey)
	if err != nil {
		return err
	}
	inst, err := Get(dc, ActivityKey)
	if err != nil {
		return err
	}

	sc := a.scopes.Begin(ctx, taskhub.KindActivity, ev.Name, ev.Version)
	defer sc.Close()
	Set(dc, ScopeKey, sc)

	inject(inst.Value, inst.Capabilities, ev.Name, ev.Version, sc.Logger(), a.converter)
	return next(ctx, dc)
}

// OrchestrationInjector prepares orchestration instances before they run.
type OrchestrationInjector struct {
	scopes    *diagnostics.Scopes
	converter task.DataConverter
}

// OrchestrationData returns the orchestration data-injection handler. The
// logger handed to the instance suppresses output while replaying.
func OrchestrationData(scopes *diagnostics.Scopes, converter task.DataConverter) *OrchestrationInjector {
	if scopes == nil {
		scopes = diagnostics.NewScopes(nil)
	}
	if converter == nil {
		converter = task.JSONConverter{}
	}
	return &OrchestrationInjector{scopes: scopes, converter: converter}
}

// Invoke opens a replay-safe diagnostics scope and initializes the
// orchestration instance.
func (o *OrchestrationInjector) Invoke(ctx context.Context, dc *DispatchContext, next Next) error {
	state, err := Get(dc, RuntimeStateKey)
	if err != nil {
		return err
	}
	inst, err := Get(dc, OrchestrationKey)
	if err != nil {
		return err
	}

	sc := o.scopes.Begin(ctx, taskhub.KindOrchestration, state.Name, state.Version)
	defer sc.Close()
	Set(dc, ScopeKey, sc)

	inject(inst.Value, inst.Capabilities, state.Name, state.Version, diagnostics.ReplaySafe(sc.Logger(), state), o.converter)
	return next(ctx, dc)
}

func inject(v any, caps task.Capabilities, name, version string, logger *slog.Logger, converter task.DataConverter) {
	if caps.Has(task.CapInitializer) {
		if in, ok := v.(task.Initializer); ok {
			in.Initialize(name, version, logger, converter)
		}
	}
	if caps.Has(task.CapConverterAware) {
		if ca, ok := v.(task.ConverterAware); ok {
			ca.SetConverter(converter)
		}
	}
}
