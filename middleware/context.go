package middleware

import (
	"fmt"

	"github.com/xraph/taskhub"
	"github.com/xraph/taskhub/diagnostics"
	"github.com/xraph/taskhub/task"
)

// Key is a typed property key. Keys are compared by name.
type Key[T any] struct {
	name string
}

// NewKey creates a property key.
func NewKey[T any](name string) Key[T] { return Key[T]{name: name} }

func (k Key[T]) String() string { return k.name }

// Well-known dispatch properties.
var (
	ScheduledEventKey = NewKey[*task.ScheduledEvent]("scheduled_event")
	RuntimeStateKey   = NewKey[*task.RuntimeState]("runtime_state")
	ActivityKey       = NewKey[*task.ActivityInstance]("activity")
	OrchestrationKey  = NewKey[*task.OrchestrationInstance]("orchestration")
	ScopeKey          = NewKey[*diagnostics.Scope]("scope")
	OutputKey         = NewKey[[]byte]("output")
)

// DispatchContext is the property bag of a single dispatch. It is created
// by the engine for each dispatch, must not be shared between dispatches,
// and is not safe for concurrent use.
type DispatchContext struct {
	kind  taskhub.Kind
	props map[string]any
	guard guard
}

// NewDispatchContext creates an empty context for a dispatch of kind.
func NewDispatchContext(kind taskhub.Kind) *DispatchContext {
	return &DispatchContext{kind: kind, props: make(map[string]any, 6)}
}

// NewActivityContext creates a context populated for an activity dispatch.
func NewActivityContext(ev *task.ScheduledEvent, inst *task.ActivityInstance) *DispatchContext {
	dc := NewDispatchContext(taskhub.KindActivity)
	Set(dc, ScheduledEventKey, ev)
	Set(dc, ActivityKey, inst)
	return dc
}

// NewOrchestrationContext creates a context populated for an orchestration
// dispatch.
func NewOrchestrationContext(state *task.RuntimeState, inst *task.OrchestrationInstance) *DispatchContext {
	dc := NewDispatchContext(taskhub.KindOrchestration)
	Set(dc, RuntimeStateKey, state)
	Set(dc, OrchestrationKey, inst)
	return dc
}

// Kind returns the dispatch kind.
func (dc *DispatchContext) Kind() taskhub.Kind { return dc.kind }

// ShortCircuit declares that the current handler completes the dispatch
// without invoking its continuation.
func (dc *DispatchContext) ShortCircuit() { dc.guard.shortCircuit() }

// Set stores v under k, replacing any previous value.
func Set[T any](dc *DispatchContext, k Key[T], v T) {
	if dc.props == nil {
		dc.props = make(map[string]any)
	}
	dc.props[k.name] = v
}

// Lookup returns the value stored under k.
func Lookup[T any](dc *DispatchContext, k Key[T]) (T, bool) {
	v, ok := dc.props[k.name].(T)
	return v, ok
}

// Get returns the value stored under k or an error wrapping
// taskhub.ErrMissingProperty.
func Get[T any](dc *DispatchContext, k Key[T]) (T, error) {
	raw, ok := dc.props[k.name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", taskhub.ErrMissingProperty, k.name)
	}
	v, ok := raw.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s holds %T", taskhub.ErrMissingProperty, k.name, raw)
	}
	return v, nil
}

// MustGet is like Get but panics when the property is missing.
func MustGet[T any](dc *DispatchContext, k Key[T]) T {
	v, err := Get(dc, k)
	if err != nil {
		panic(err)
	}
	return v
}

// Delete removes the value stored under k.
func Delete[T any](dc *DispatchContext, k Key[T]) {
	delete(dc.props, k.name)
}
