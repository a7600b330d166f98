package task

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/taskhub"
)

// Capabilities records which optional interfaces a task type implements.
type Capabilities uint8

const (
	CapInitializer Capabilities = 1 << iota
	CapConverterAware
)

// Has reports whether all bits in c are set.
func (c Capabilities) Has(flag Capabilities) bool { return c&flag == flag }

func capabilitiesOf(v any) Capabilities {
	var c Capabilities
	if _, ok := v.(Initializer); ok {
		c |= CapInitializer
	}
	if _, ok := v.(ConverterAware); ok {
		c |= CapConverterAware
	}
	return c
}

// Descriptor describes a registered task type. It is immutable once
// created.
type Descriptor[T any] struct {
	Kind         taskhub.Kind
	Name         string
	Version      string
	Capabilities Capabilities

	factory func() T
}

// Instance is a task value created for one dispatch, carrying the
// capabilities resolved at registration.
type Instance[T any] struct {
	Value        T
	Name         string
	Version      string
	Capabilities Capabilities
}

// ActivityDescriptor describes a registered activity.
type ActivityDescriptor = Descriptor[Activity]

// OrchestrationDescriptor describes a registered orchestration.
type OrchestrationDescriptor = Descriptor[Orchestration]

// ActivityInstance is an activity value created for one dispatch.
type ActivityInstance = Instance[Activity]

// OrchestrationInstance is an orchestration value created for one dispatch.
type OrchestrationInstance = Instance[Orchestration]

// NewActivity describes an activity type. Capabilities are resolved from
// the static type A; when A is itself an interface the factory is probed
// once.
func NewActivity[A Activity](name, version string, factory func() A) *ActivityDescriptor {
	return &ActivityDescriptor{
		Kind:         taskhub.KindActivity,
		Name:         name,
		Version:      version,
		Capabilities: resolve(factory),
		factory:      func() Activity { return factory() },
	}
}

// NewOrchestration describes an orchestration type.
func NewOrchestration[O Orchestration](name, version string, factory func() O) *OrchestrationDescriptor {
	return &OrchestrationDescriptor{
		Kind:         taskhub.KindOrchestration,
		Name:         name,
		Version:      version,
		Capabilities: resolve(factory),
		factory:      func() Orchestration { return factory() },
	}
}

func resolve[T any](factory func() T) Capabilities {
	var zero T
	if any(zero) != nil {
		return capabilitiesOf(zero)
	}
	if factory == nil {
		return 0
	}
	return capabilitiesOf(factory())
}

// New creates a fresh task instance.
func (d *Descriptor[T]) New() *Instance[T] {
	return &Instance[T]{
		Value:        d.factory(),
		Name:         d.Name,
		Version:      d.Version,
		Capabilities: d.Capabilities,
	}
}

type taskKey struct {
	name    string
	version string
}

// Registry maps task name+version pairs to descriptors. It is safe for
// concurrent use.
type Registry struct {
	mu             sync.RWMutex
	activities     map[taskKey]*ActivityDescriptor
	orchestrations map[taskKey]*OrchestrationDescriptor
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		activities:     make(map[taskKey]*ActivityDescriptor),
		orchestrations: make(map[taskKey]*OrchestrationDescriptor),
	}
}

// AddActivity registers an activity descriptor.
func (r *Registry) AddActivity(d *ActivityDescriptor) error {
	if err := validate(d); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	k := taskKey{d.Name, d.Version}
	if _, exists := r.activities[k]; exists {
		return fmt.Errorf("%w: activity %s@%s", taskhub.ErrDuplicateTask, d.Name, d.Version)
	}
	r.activities[k] = d
	return nil
}

// AddOrchestration registers an orchestration descriptor.
func (r *Registry) AddOrchestration(d *OrchestrationDescriptor) error {
	if err := validate(d); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	k := taskKey{d.Name, d.Version}
	if _, exists := r.orchestrations[k]; exists {
		return fmt.Errorf("%w: orchestration %s@%s", taskhub.ErrDuplicateTask, d.Name, d.Version)
	}
	r.orchestrations[k] = d
	return nil
}

func validate[T any](d *Descriptor[T]) error {
	if d == nil || d.factory == nil {
		return fmt.Errorf("%w: task descriptor", taskhub.ErrNilArgument)
	}
	if d.Name == "" {
		return taskhub.ErrInvalidTaskName
	}
	return nil
}

// Activity returns the descriptor for an activity name and version.
func (r *Registry) Activity(name, version string) (*ActivityDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.activities[taskKey{name, version}]
	return d, ok
}

// Orchestration returns the descriptor for an orchestration name and version.
func (r *Registry) Orchestration(name, version string) (*OrchestrationDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.orchestrations[taskKey{name, version}]
	return d, ok
}

// NewActivityInstance creates an instance of the named activity.
func (r *Registry) NewActivityInstance(name, version string) (*ActivityInstance, error) {
	d, ok := r.Activity(name, version)
	if !ok {
		return nil, fmt.Errorf("%w: activity %s@%s", taskhub.ErrTaskNotFound, name, version)
	}
	return d.New(), nil
}

// NewOrchestrationInstance creates an instance of the named orchestration.
func (r *Registry) NewOrchestrationInstance(name, version string) (*OrchestrationInstance, error) {
	d, ok := r.Orchestration(name, version)
	if !ok {
		return nil, fmt.Errorf("%w: orchestration %s@%s", taskhub.ErrTaskNotFound, name, version)
	}
	return d.New(), nil
}

// Names returns the sorted "name@version" list of registered tasks of a kind.
func (r *Registry) Names(kind taskhub.Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	switch kind {
	case taskhub.KindActivity:
		for k := range r.activities {
			names = append(names, k.name+"@"+k.version)
		}
	case taskhub.KindOrchestration:
		for k := range r.orchestrations {
			names = append(names, k.name+"@"+k.version)
		}
	}
	sort.Strings(names)
	return names
}
