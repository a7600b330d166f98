package taskhub

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSection is the configuration section the options are bound from.
const DefaultSection = "TaskHub"

// Kind identifies the dispatch pipeline a task runs through.
type Kind string

const (
	KindActivity      Kind = "activity"
	KindOrchestration Kind = "orchestration"
)

// IncludeDetails selects which task kinds surface full error details
// (message and stack) in their failures.
type IncludeDetails uint8

const (
	IncludeNone           IncludeDetails = 0
	IncludeActivities     IncludeDetails = 1 << 0
	IncludeOrchestrations IncludeDetails = 1 << 1
	IncludeAll                           = IncludeActivities | IncludeOrchestrations
)

// Includes reports whether failures of the given kind carry details.
func (d IncludeDetails) Includes(k Kind) bool {
	switch k {
	case KindActivity:
		return d&IncludeActivities != 0
	case KindOrchestration:
		return d&IncludeOrchestrations != 0
	default:
		return false
	}
}

func (d IncludeDetails) String() string {
	switch d {
	case IncludeNone:
		return "none"
	case IncludeActivities:
		return "activities"
	case IncludeOrchestrations:
		return "orchestrations"
	case IncludeAll:
		return "all"
	default:
		return fmt.Sprintf("include(%d)", uint8(d))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d IncludeDetails) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *IncludeDetails) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "none":
		*d = IncludeNone
	case "activities":
		*d = IncludeActivities
	case "orchestrations":
		*d = IncludeOrchestrations
	case "all":
		*d = IncludeAll
	default:
		return fmt.Errorf("%w: include details %q", ErrInvalidConfigText, text)
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *IncludeDetails) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// ErrorPropagationMode selects how task failures surface to their caller.
type ErrorPropagationMode uint8

const (
	// SerializeErrors preserves the original error chain as the cause.
	SerializeErrors ErrorPropagationMode = iota
	// UseFailureDetails projects failures onto failure.Details.
	UseFailureDetails
)

func (m ErrorPropagationMode) String() string {
	switch m {
	case SerializeErrors:
		return "serialize_errors"
	case UseFailureDetails:
		return "failure_details"
	default:
		return fmt.Sprintf("propagation(%d)", uint8(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ErrorPropagationMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ErrorPropagationMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "serialize_errors", "serializeexceptions":
		*m = SerializeErrors
	case "failure_details", "usefailuredetails":
		*m = UseFailureDetails
	default:
		return fmt.Errorf("%w: error propagation mode %q", ErrInvalidConfigText, text)
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *ErrorPropagationMode) UnmarshalYAML(node *yaml.Node) error {
	return m.UnmarshalText([]byte(node.Value))
}

// Options holds the task hub configuration consumed by the builder and the
// supervised worker.
type Options struct {
	// CreateIfNotExists provisions engine resources before the worker starts.
	CreateIfNotExists bool `yaml:"createIfNotExists" json:"create_if_not_exists"`

	// IncludeDetails selects which task kinds surface full error details.
	IncludeDetails IncludeDetails `yaml:"includeDetails" json:"include_details"`

	// ErrorPropagationMode selects how task failures surface.
	ErrorPropagationMode ErrorPropagationMode `yaml:"errorPropagationMode" json:"error_propagation_mode"`

	// ShutdownTimeout is the hard limit the host waits for background
	// services to stop.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdown_timeout"`
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists:    false,
		IncludeDetails:       IncludeNone,
		ErrorPropagationMode: SerializeErrors,
		ShutdownTimeout:      30 * time.Second,
	}
}

// LoadOptions binds the named section of a YAML document over
// DefaultOptions. An empty section name means DefaultSection. A document
// without the section yields the defaults.
func LoadOptions(data []byte, section string) (Options, error) {
	if section == "" {
		section = DefaultSection
	}

	opts := DefaultOptions()

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return opts, fmt.Errorf("taskhub: parse configuration: %w", err)
	}

	node, ok := doc[section]
	if !ok {
		return opts, nil
	}
	if err := node.Decode(&opts); err != nil {
		return opts, fmt.Errorf("taskhub: bind section %q: %w", section, err)
	}

	return opts, nil
}
