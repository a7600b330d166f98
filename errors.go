package taskhub

import "errors"

var (
	// Contract violations.
	ErrNilArgument     = errors.New("taskhub: required argument is nil")
	ErrMissingProperty = errors.New("taskhub: dispatch context entry not found")
	ErrFrozen          = errors.New("taskhub: pipeline is frozen")
	ErrIndexOutOfRange = errors.New("taskhub: insert index out of range")

	// Chain contract errors.
	ErrContinuationReinvoked = errors.New("taskhub: continuation invoked more than once")
	ErrContinuationSkipped   = errors.New("taskhub: handler returned success without invoking its continuation")

	// Lifecycle errors.
	ErrAlreadyStarted  = errors.New("taskhub: worker already started")
	ErrInvalidState    = errors.New("taskhub: invalid state transition")
	ErrNotRunning      = errors.New("taskhub: worker not running")
	ErrShutdownTimeout = errors.New("taskhub: shutdown timed out")

	// Registration errors.
	ErrTaskNotFound      = errors.New("taskhub: task not registered")
	ErrDuplicateTask     = errors.New("taskhub: task already registered")
	ErrInvalidTaskName   = errors.New("taskhub: task name is empty")
	ErrInvalidConfigText = errors.New("taskhub: invalid configuration value")
)
