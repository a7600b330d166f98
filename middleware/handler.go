package middleware

import (
	"context"
	"reflect"
)

// Next continues the dispatch with the remaining handlers.
type Next func(ctx context.Context, dc *DispatchContext) error

// Handler intercepts a dispatch.
type Handler interface {
	Invoke(ctx context.Context, dc *DispatchContext, next Next) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, dc *DispatchContext, next Next) error

// Invoke calls f.
func (f HandlerFunc) Invoke(ctx context.Context, dc *DispatchContext, next Next) error {
	return f(ctx, dc, next)
}

// Descriptor registers a handler. Identity is used for presence checks
// only; duplicate identities are allowed and each executes.
type Descriptor struct {
	Identity string
	Factory  func() Handler
}

// Of describes a handler type. The identity is the type name of H.
func Of[H Handler](factory func() H) Descriptor {
	d := Descriptor{Factory: func() Handler { return factory() }}
	if t := reflect.TypeFor[H](); t.Kind() != reflect.Interface {
		d.Identity = t.String()
	} else if factory != nil {
		d.Identity = reflect.TypeOf(factory()).String()
	}
	return d
}

// Singleton describes an existing handler value shared by every pipeline
// it is frozen into. A nil handler yields a descriptor the registry
// rejects.
func Singleton(h Handler) Descriptor {
	if h == nil {
		return Descriptor{}
	}
	return Descriptor{
		Identity: reflect.TypeOf(h).String(),
		Factory:  func() Handler { return h },
	}
}

// Named describes an existing handler value under an explicit identity.
func Named(identity string, h Handler) Descriptor {
	d := Singleton(h)
	if d.Factory != nil {
		d.Identity = identity
	}
	return d
}

// Func describes a function handler under an explicit identity.
func Func(identity string, fn HandlerFunc) Descriptor {
	return Descriptor{
		Identity: identity,
		Factory:  func() Handler { return fn },
	}
}
