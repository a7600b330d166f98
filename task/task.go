package task

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/xraph/taskhub/id"
)

// Activity is a unit of work invoked by an orchestration.
type Activity interface {
	Run(ctx context.Context, input []byte) ([]byte, error)
}

// Orchestration is a replayable workflow definition.
type Orchestration interface {
	Run(ctx context.Context, state *RuntimeState, input []byte) ([]byte, error)
}

// ScheduledEvent describes the activity the engine scheduled for the
// current dispatch.
type ScheduledEvent struct {
	EventID int    `json:"event_id"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Input   []byte `json:"input,omitempty"`

	// InstanceID and ExecutionID identify the orchestration that
	// scheduled the activity.
	InstanceID  id.InstanceID  `json:"instance_id"`
	ExecutionID id.ExecutionID `json:"execution_id"`

	// Timeout bounds the activity execution. Zero means no limit.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// RuntimeState describes the orchestration being dispatched. The replay
// flag is owned by the engine and may flip while an episode executes.
type RuntimeState struct {
	Name        string
	Version     string
	InstanceID  id.InstanceID
	ExecutionID id.ExecutionID
	Input       []byte

	replaying atomic.Bool
	completed atomic.Bool
}

// NewRuntimeState creates a runtime state for the given orchestration.
func NewRuntimeState(name, version string, instanceID, executionID id.ID) *RuntimeState {
	return &RuntimeState{
		Name:        name,
		Version:     version,
		InstanceID:  instanceID,
		ExecutionID: executionID,
	}
}

// IsReplaying reports whether the engine is currently replaying history.
// It is re-read on every call.
func (s *RuntimeState) IsReplaying() bool { return s.replaying.Load() }

// SetReplaying is called by the engine as it moves through history.
func (s *RuntimeState) SetReplaying(v bool) { s.replaying.Store(v) }

// IsCompleted reports whether the instance has reached a terminal status.
func (s *RuntimeState) IsCompleted() bool { return s.completed.Load() }

// Complete is called by the engine, or by the orchestration, once the
// instance will not be dispatched again.
func (s *RuntimeState) Complete() { s.completed.Store(true) }
