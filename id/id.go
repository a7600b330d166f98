// Package id defines the TypeID-based identifiers used across the task hub.
//
// An identifier is a prefixed, K-sortable (UUIDv7) value rendered as
// "prefix_suffix", for example "inst_01h2xcejqtf2nbrexx3vqjhp41".
package id

import (
	"errors"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix names the kind of entity an ID refers to.
type Prefix string

const (
	PrefixInstance  Prefix = "inst"
	PrefixExecution Prefix = "exec"
	PrefixWorker    Prefix = "wkr"
	PrefixScope     Prefix = "scope"
)

// ErrEmpty is returned when parsing an empty string.
var ErrEmpty = errors.New("id: empty identifier")

// ID is a prefix-qualified identifier. The zero value is Nil.
//
//nolint:recvcheck // UnmarshalText needs a pointer receiver.
type ID struct {
	tid typeid.TypeID
	set bool
}

// Nil is the zero ID.
var Nil ID

// New generates an ID with the given prefix. An invalid prefix is a
// programming error and panics.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: generate with prefix %q: %v", prefix, err))
	}
	return ID{tid: tid, set: true}
}

// Parse decodes any TypeID string.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, ErrEmpty
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: invalid identifier %q: %w", s, err)
	}
	return ID{tid: tid, set: true}, nil
}

// ParseWithPrefix decodes s and rejects identifiers of another kind.
func ParseWithPrefix(s string, want Prefix) (ID, error) {
	v, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if got := v.Prefix(); got != want {
		return Nil, fmt.Errorf("id: %q has prefix %q, want %q", s, got, want)
	}
	return v, nil
}

// ──────────────────────────────────────────────────
// Entity aliases
// ──────────────────────────────────────────────────

// InstanceID identifies an orchestration instance.
type InstanceID = ID

// ExecutionID identifies one execution of an orchestration instance.
type ExecutionID = ID

// WorkerID identifies a supervised background worker.
type WorkerID = ID

// ScopeID identifies a diagnostics scope.
type ScopeID = ID

func NewInstanceID() ID  { return New(PrefixInstance) }
func NewExecutionID() ID { return New(PrefixExecution) }
func NewWorkerID() ID    { return New(PrefixWorker) }
func NewScopeID() ID     { return New(PrefixScope) }

func ParseInstanceID(s string) (ID, error)  { return ParseWithPrefix(s, PrefixInstance) }
func ParseExecutionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixExecution) }
func ParseWorkerID(s string) (ID, error)    { return ParseWithPrefix(s, PrefixWorker) }

// ──────────────────────────────────────────────────
// Methods
// ──────────────────────────────────────────────────

// String renders the ID as "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if i.IsNil() {
		return ""
	}
	return i.tid.String()
}

// Prefix returns the entity prefix, or "" for Nil.
func (i ID) Prefix() Prefix {
	if i.IsNil() {
		return ""
	}
	return Prefix(i.tid.Prefix())
}

// IsNil reports whether i is the zero ID.
func (i ID) IsNil() bool { return !i.set }

// MarshalText implements encoding.TextMarshaler. Nil encodes as empty text.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text decodes to Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	v, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = v
	return nil
}
