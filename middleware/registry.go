package middleware

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/xraph/taskhub"
)

// Registry is the ordered descriptor list of one pipeline. It is
// mutable until Freeze.
type Registry struct {
	mu          sync.RWMutex
	descriptors []Descriptor
	frozen      bool
}

// NewRegistry creates a registry holding ds in order.
func NewRegistry(ds ...Descriptor) *Registry {
	return &Registry{descriptors: slices.Clone(ds)}
}

// Add appends d.
func (r *Registry) Add(d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(len(r.descriptors), d)
}

// Insert places d at position i, shifting later descriptors. Position 0
// makes d the outermost handler.
func (r *Registry) Insert(i int, d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(i, d)
}

func (r *Registry) insertLocked(i int, d Descriptor) error {
	if r.frozen {
		return taskhub.ErrFrozen
	}
	if d.Factory == nil {
		return fmt.Errorf("%w: descriptor %q has no factory", taskhub.ErrNilArgument, d.Identity)
	}
	if d.Identity == "" {
		return fmt.Errorf("%w: descriptor identity", taskhub.ErrNilArgument)
	}
	if i < 0 || i > len(r.descriptors) {
		return fmt.Errorf("%w: %d not in [0, %d]", taskhub.ErrIndexOutOfRange, i, len(r.descriptors))
	}
	r.descriptors = slices.Insert(r.descriptors, i, d)
	return nil
}

// Contains reports whether a descriptor with identity is registered.
func (r *Registry) Contains(identity string) bool {
	return r.IndexOf(identity) >= 0
}

// IndexOf returns the position of the first descriptor with identity, or -1.
func (r *Registry) IndexOf(identity string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.IndexFunc(r.descriptors, func(d Descriptor) bool { return d.Identity == identity })
}

// Descriptors returns a copy of the registered descriptors in order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.descriptors)
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}

// Frozen reports whether Freeze has succeeded or Seal was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Seal rejects further changes without building a pipeline.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Freeze instantiates every handler once and composes them around
// terminal. The registry rejects further changes afterwards.
func (r *Registry) Freeze(terminal Next) (*Pipeline, error) {
	if terminal == nil {
		return nil, fmt.Errorf("%w: terminal", taskhub.ErrNilArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return nil, taskhub.ErrFrozen
	}

	handlers := make([]Handler, len(r.descriptors))
	identities := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		h := d.Factory()
		if h == nil {
			return nil, fmt.Errorf("%w: factory of %q returned nil", taskhub.ErrNilArgument, d.Identity)
		}
		handlers[i] = h
		identities[i] = d.Identity
	}

	r.frozen = true
	return &Pipeline{
		identities: identities,
		chain:      compose(identities, handlers, terminal),
	}, nil
}

// Pipeline is a frozen, composed handler chain. It is safe for
// concurrent dispatches, each with its own DispatchContext.
type Pipeline struct {
	identities []string
	chain      Next
}

// Dispatch runs the chain for dc.
func (p *Pipeline) Dispatch(ctx context.Context, dc *DispatchContext) error {
	return p.chain(ctx, dc)
}

// Identities returns the handler identities in execution order.
func (p *Pipeline) Identities() []string { return slices.Clone(p.identities) }

// Len returns the number of handlers.
func (p *Pipeline) Len() int { return len(p.identities) }
