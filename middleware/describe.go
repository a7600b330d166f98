package middleware

import (
	"github.com/xraph/taskhub"
	"github.com/xraph/taskhub/diagnostics"
	"github.com/xraph/taskhub/tracing"
)

// describe identifies the task being dispatched from the well-known
// properties. Missing properties leave fields empty.
func describe(dc *DispatchContext) tracing.Task {
	t := tracing.Task{Kind: dc.Kind()}
	switch dc.Kind() {
	case taskhub.KindActivity:
		if ev, ok := Lookup(dc, ScheduledEventKey); ok && ev != nil {
			t.Name, t.Version = ev.Name, ev.Version
			t.InstanceID, t.ExecutionID = ev.InstanceID.String(), ev.ExecutionID.String()
		}
	case taskhub.KindOrchestration:
		if st, ok := Lookup(dc, RuntimeStateKey); ok && st != nil {
			t.Name, t.Version = st.Name, st.Version
			t.InstanceID, t.ExecutionID = st.InstanceID.String(), st.ExecutionID.String()
		}
	}
	return t
}

// replayState returns the replay flag source of an orchestration
// dispatch, or nil for activities.
func replayState(dc *DispatchContext) diagnostics.ReplayState {
	if dc.Kind() != taskhub.KindOrchestration {
		return nil
	}
	if st, ok := Lookup(dc, RuntimeStateKey); ok && st != nil {
		return st
	}
	return nil
}
