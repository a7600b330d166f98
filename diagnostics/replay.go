// Package diagnostics provides replay-aware logging and dispatch-scoped
// diagnostics for the task hub.
//
// A [ReplayHandler] decorates any slog.Handler so that nothing is emitted
// while the engine replays orchestration history: Enabled reports false,
// which makes slog skip record construction entirely, and Handle drops
// anything that slips through. WithAttrs and WithGroup are always
// delegated so scopes nest identically during replay and live execution.
package diagnostics

import (
	"context"
	"log/slog"
)

// ReplayState reports whether the current orchestration is replaying
// history. It is consulted on every call.
type ReplayState interface {
	IsReplaying() bool
}

// ReplayFunc adapts a function to ReplayState.
type ReplayFunc func() bool

// IsReplaying implements ReplayState.
func (f ReplayFunc) IsReplaying() bool { return f() }

// ReplayHandler suppresses log emission during replay.
type ReplayHandler struct {
	inner slog.Handler
	state ReplayState
}

var _ slog.Handler = (*ReplayHandler)(nil)

// NewReplayHandler wraps inner so that it is silent while state reports
// replay.
func NewReplayHandler(inner slog.Handler, state ReplayState) *ReplayHandler {
	return &ReplayHandler{inner: inner, state: state}
}

// Enabled implements slog.Handler.
func (h *ReplayHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.state.IsReplaying() {
		return false
	}
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ReplayHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.state.IsReplaying() {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *ReplayHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ReplayHandler{inner: h.inner.WithAttrs(attrs), state: h.state}
}

// WithGroup implements slog.Handler.
func (h *ReplayHandler) WithGroup(name string) slog.Handler {
	return &ReplayHandler{inner: h.inner.WithGroup(name), state: h.state}
}

// Unwrap returns the decorated handler.
func (h *ReplayHandler) Unwrap() slog.Handler { return h.inner }

// ReplaySafe returns a logger that is silent while state reports replay.
// A nil logger means slog.Default().
func ReplaySafe(logger *slog.Logger, state ReplayState) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slog.New(NewReplayHandler(logger.Handler(), state))
}
