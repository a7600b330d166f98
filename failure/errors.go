package failure

import (
	"errors"
	"fmt"
)

type stackTracer interface {
	StackTrace() string
}

// PanicError is a recovered non-fatal panic.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// StackTrace returns the goroutine stack captured at recovery.
func (e *PanicError) StackTrace() string { return e.Stack }

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

type nonRetriable interface {
	NonRetriable() bool
}

type nonRetriableError struct {
	err error
}

func (e *nonRetriableError) Error() string      { return e.err.Error() }
func (e *nonRetriableError) Unwrap() error      { return e.err }
func (e *nonRetriableError) NonRetriable() bool { return true }

// NonRetriable marks err so the engine does not retry the task.
func NonRetriable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetriableError{err: err}
}

// IsNonRetriable reports whether any error in err's chain is marked
// non-retriable.
func IsNonRetriable(err error) bool {
	var nr nonRetriable
	return errors.As(err, &nr) && nr.NonRetriable()
}
