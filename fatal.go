package taskhub

import "fmt"

// FatalKind classifies process-level conditions that no interceptor may
// catch or suppress.
type FatalKind int

const (
	OutOfMemory FatalKind = iota + 1
	StackOverflow
	AccessViolation
	ThreadAbort
)

// String returns the human-readable name of the fatal kind.
func (k FatalKind) String() string {
	switch k {
	case OutOfMemory:
		return "out_of_memory"
	case StackOverflow:
		return "stack_overflow"
	case AccessViolation:
		return "access_violation"
	case ThreadAbort:
		return "thread_abort"
	default:
		return fmt.Sprintf("fatal(%d)", int(k))
	}
}

// FatalError is a leaf error describing a fatal process condition.
type FatalError struct {
	Kind   FatalKind
	Reason string
}

// NewFatal creates a FatalError of the given kind.
func NewFatal(kind FatalKind, reason string) *FatalError {
	return &FatalError{Kind: kind, Reason: reason}
}

func (e *FatalError) Error() string {
	if e.Reason == "" {
		return "taskhub: fatal " + e.Kind.String()
	}
	return "taskhub: fatal " + e.Kind.String() + ": " + e.Reason
}

// IsFatal reports whether err, or any error nested anywhere inside it,
// is a *FatalError. Both single (Unwrap() error) and aggregate
// (Unwrap() []error, as produced by errors.Join) wrappers are traversed.
func IsFatal(err error) bool {
	switch x := err.(type) {
	case nil:
		return false
	case *FatalError:
		return true
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if IsFatal(inner) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return IsFatal(x.Unwrap())
	default:
		return false
	}
}

// PanicError converts a recovered panic value into an error. Error values
// are returned unchanged so IsFatal can classify them.
func PanicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
