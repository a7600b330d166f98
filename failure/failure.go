// Package failure converts errors raised by task code into the failure
// values the engine surfaces to callers, honoring the configured
// error-propagation mode and detail inclusion.
//
// Two modes exist. SerializeErrors keeps the original error chain as the
// failure cause so callers can still match it with errors.Is and errors.As.
// UseFailureDetails flattens the chain into a portable [Details] record.
// Only one of the two representations is ever populated on a
// [TaskFailedError].
//
// Fatal errors (see taskhub.IsFatal) are never translated.
package failure

import (
	"errors"
	"fmt"

	"github.com/xraph/taskhub"
)

// Details is a portable description of a task failure.
type Details struct {
	ErrorType      string   `json:"error_type" msgpack:"error_type"`
	Message        string   `json:"message" msgpack:"message"`
	StackTrace     string   `json:"stack_trace,omitempty" msgpack:"stack_trace,omitempty"`
	Inner          *Details `json:"inner,omitempty" msgpack:"inner,omitempty"`
	IsNonRetriable bool     `json:"is_non_retriable,omitempty" msgpack:"is_non_retriable,omitempty"`
}

// String renders the details chain on one line.
func (d *Details) String() string {
	if d == nil {
		return ""
	}
	s := d.ErrorType + ": " + d.Message
	if d.Inner != nil {
		s += " (" + d.Inner.String() + ")"
	}
	return s
}

// withheldMessage replaces the message when details are not included.
const withheldMessage = "details withheld"

// FromError builds the details chain for err by walking its Unwrap chain.
// For an aggregate (Unwrap() []error) the message carries every member
// and Inner describes the first one. When include is false only the
// outermost error type is kept.
func FromError(err error, include bool) *Details {
	if err == nil {
		return nil
	}
	d := &Details{
		ErrorType:      typeName(err),
		IsNonRetriable: IsNonRetriable(err),
	}
	if !include {
		d.Message = withheldMessage
		return d
	}
	d.Message = err.Error()
	var st stackTracer
	if errors.As(err, &st) {
		d.StackTrace = st.StackTrace()
	}
	if inner := unwrapFirst(err); inner != nil {
		d.Inner = FromError(inner, true)
	}
	return d
}

func unwrapFirst(err error) error {
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return u.Unwrap()
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if e != nil {
				return e
			}
		}
	}
	return nil
}

// TaskFailedError is the surfaced failure of an activity or
// orchestration. Exactly one of Cause and Details is set.
type TaskFailedError struct {
	Kind     taskhub.Kind
	TaskName string

	// Cause is the original error (SerializeErrors mode).
	Cause error

	// Details is the flattened failure (UseFailureDetails mode).
	Details *Details
}

func (e *TaskFailedError) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("taskhub: %s %q failed: %v", e.Kind, e.TaskName, e.Cause)
	case e.Details != nil:
		return fmt.Sprintf("taskhub: %s %q failed: %s", e.Kind, e.TaskName, e.Details.Message)
	default:
		return fmt.Sprintf("taskhub: %s %q failed", e.Kind, e.TaskName)
	}
}

// Unwrap returns the original cause, if preserved.
func (e *TaskFailedError) Unwrap() error { return e.Cause }

// Propagator applies the error-propagation options to task errors.
type Propagator struct {
	mode    taskhub.ErrorPropagationMode
	include taskhub.IncludeDetails
}

// NewPropagator creates a propagator from the error-related options.
func NewPropagator(opts taskhub.Options) *Propagator {
	return &Propagator{mode: opts.ErrorPropagationMode, include: opts.IncludeDetails}
}

// Mode returns the configured propagation mode.
func (p *Propagator) Mode() taskhub.ErrorPropagationMode { return p.mode }

// Surface converts err raised by the named task into a *TaskFailedError.
// Nil, fatal and already-translated errors are returned unchanged.
func (p *Propagator) Surface(kind taskhub.Kind, name string, err error) error {
	if err == nil || taskhub.IsFatal(err) {
		return err
	}
	var tf *TaskFailedError
	if errors.As(err, &tf) {
		return err
	}

	include := p.include.Includes(kind)
	out := &TaskFailedError{Kind: kind, TaskName: name}
	switch p.mode {
	case taskhub.UseFailureDetails:
		out.Details = FromError(err, include)
	default:
		if include {
			out.Cause = err
		} else {
			out.Cause = &withheldError{typ: typeName(err), nonRetriable: IsNonRetriable(err)}
		}
	}
	return out
}

// withheldError stands in for a cause whose details are not included.
type withheldError struct {
	typ          string
	nonRetriable bool
}

func (e *withheldError) Error() string { return e.typ + ": " + withheldMessage }

func (e *withheldError) NonRetriable() bool { return e.nonRetriable }

func typeName(err error) string { return fmt.Sprintf("%T", err) }
