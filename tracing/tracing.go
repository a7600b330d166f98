// Package tracing holds the pieces of dispatch tracing that do not depend on
// the middleware chain: the deterministic span naming function, the
// standard tag set, and a process-wide side channel that remembers the
// trace context of each orchestration instance across suspensions.
package tracing

import (
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/taskhub"
)

// TracerName is the instrumentation scope name for task hub tracing.
const TracerName = "github.com/xraph/taskhub"

// Standard attribute keys.
const (
	KeyKind        = attribute.Key("kind")
	KeyType        = attribute.Key("type")
	KeyTaskName    = attribute.Key("task.name")
	KeyTaskVersion = attribute.Key("task.version")
	KeyInstanceID  = attribute.Key("task.instance_id")
	KeyExecutionID = attribute.Key("task.execution_id")
)

// SpanName returns the span name for a dispatch: "kind:name" or
// "kind:name@(version)" when a version is set.
func SpanName(kind taskhub.Kind, name, version string) string {
	if version == "" {
		return string(kind) + ":" + name
	}
	return string(kind) + ":" + name + "@(" + version + ")"
}

// Task identifies the dispatched task for tagging.
type Task struct {
	Kind        taskhub.Kind
	Name        string
	Version     string
	InstanceID  string
	ExecutionID string
}

// Attributes returns the standard tag set for t. Optional fields are
// omitted when empty.
func Attributes(t Task) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 6)
	attrs = append(attrs,
		KeyKind.String("server"),
		KeyType.String(string(t.Kind)),
		KeyTaskName.String(t.Name),
	)
	if t.Version != "" {
		attrs = append(attrs, KeyTaskVersion.String(t.Version))
	}
	if t.InstanceID != "" {
		attrs = append(attrs, KeyInstanceID.String(t.InstanceID))
	}
	if t.ExecutionID != "" {
		attrs = append(attrs, KeyExecutionID.String(t.ExecutionID))
	}
	return attrs
}

// ContextStore remembers the last trace context observed for each
// orchestration instance so a resumed dispatch can rejoin its trace when
// the ambient context was lost. It is safe for concurrent use.
type ContextStore struct {
	mu       sync.RWMutex
	contexts map[string]trace.SpanContext
}

// NewContextStore creates an empty store.
func NewContextStore() *ContextStore {
	return &ContextStore{contexts: make(map[string]trace.SpanContext)}
}

// Capture records sc for the instance. Invalid span contexts are ignored.
func (s *ContextStore) Capture(instanceID string, sc trace.SpanContext) {
	if instanceID == "" || !sc.IsValid() {
		return
	}
	s.mu.Lock()
	s.contexts[instanceID] = sc
	s.mu.Unlock()
}

// Lookup returns the captured context for the instance.
func (s *ContextStore) Lookup(instanceID string) (trace.SpanContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.contexts[instanceID]
	return sc, ok
}

// Forget drops the captured context, typically once the instance completes.
func (s *ContextStore) Forget(instanceID string) {
	s.mu.Lock()
	delete(s.contexts, instanceID)
	s.mu.Unlock()
}

// Len returns the number of instances with a captured context.
func (s *ContextStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contexts)
}
