package middleware

import (
	"context"
	"fmt"

	"github.com/xraph/taskhub"
)

// Compose folds handlers around terminal. The first handler is the
// outermost. The returned Next is built once and may be reused across
// dispatches.
func Compose(handlers []Handler, terminal Next) Next {
	identities := make([]string, len(handlers))
	for i, h := range handlers {
		identities[i] = fmt.Sprintf("%T", h)
	}
	return compose(identities, handlers, terminal)
}

func compose(identities []string, handlers []Handler, terminal Next) Next {
	n := len(handlers)
	next := terminal
	for i := n - 1; i >= 0; i-- {
		next = link(i, identities[i], handlers[i], continuation(i+1, identities[i], next))
	}

	first := next
	return func(ctx context.Context, dc *DispatchContext) error {
		if dc == nil {
			return fmt.Errorf("%w: dispatch context", taskhub.ErrNilArgument)
		}
		dc.guard.arm(n)
		return first(ctx, dc)
	}
}

// link runs handler i and reports a continuation that was neither invoked
// nor explicitly short-circuited.
func link(i int, identity string, h Handler, next Next) Next {
	return func(ctx context.Context, dc *DispatchContext) error {
		g := &dc.guard
		prev := g.current
		g.current = i
		defer func() { g.current = prev }()

		err := h.Invoke(ctx, dc, next)
		if err == nil && !g.entered(i+1) && !g.shorted(i) {
			return fmt.Errorf("%w: %s", taskhub.ErrContinuationSkipped, identity)
		}
		return err
	}
}

// continuation guards step against a second invocation by the handler
// owning it.
func continuation(step int, owner string, next Next) Next {
	return func(ctx context.Context, dc *DispatchContext) error {
		if !dc.guard.enter(step) {
			return fmt.Errorf("%w: %s", taskhub.ErrContinuationReinvoked, owner)
		}
		return next(ctx, dc)
	}
}

const (
	flagEntered uint8 = 1 << iota
	flagShorted
)

// guard tracks continuation use for one dispatch. Index n is the terminal.
type guard struct {
	flags   []uint8
	current int
}

func (g *guard) arm(n int) {
	if cap(g.flags) < n+1 {
		g.flags = make([]uint8, n+1)
	} else {
		g.flags = g.flags[:n+1]
		clear(g.flags)
	}
	g.current = -1
}

func (g *guard) enter(step int) bool {
	if step >= len(g.flags) {
		return true
	}
	if g.flags[step]&flagEntered != 0 {
		return false
	}
	g.flags[step] |= flagEntered
	return true
}

func (g *guard) entered(step int) bool {
	return step >= len(g.flags) || g.flags[step]&flagEntered != 0
}

func (g *guard) shorted(i int) bool {
	return i < len(g.flags) && g.flags[i]&flagShorted != 0
}

func (g *guard) shortCircuit() {
	if g.current >= 0 && g.current < len(g.flags) {
		g.flags[g.current] |= flagShorted
	}
}
