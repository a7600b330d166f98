package hosting_test

import (
	"context"
	"sync"
	"time"
)

// fakeEngine records lifecycle calls.
type fakeEngine struct {
	mu         sync.Mutex
	starts     int
	stops      int
	creates    int
	forces     []bool
	stopCtxErr []error

	startErr  error
	stopErr   error
	createErr error

	startGate chan struct{}
	stopDelay time.Duration

	// gracefulGate holds a non-forced Stop until closed, which then
	// returns gracefulErr.
	gracefulGate chan struct{}
	gracefulErr  error
}

func (e *fakeEngine) Start(ctx context.Context) error {
	if e.startGate != nil {
		select {
		case <-e.startGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.starts++
	return e.startErr
}

func (e *fakeEngine) Stop(ctx context.Context, force bool) error {
	if e.stopDelay > 0 {
		time.Sleep(e.stopDelay)
	}
	if !force && e.gracefulGate != nil {
		<-e.gracefulGate
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
	e.forces = append(e.forces, force)
	e.stopCtxErr = append(e.stopCtxErr, ctx.Err())
	if !force && e.gracefulGate != nil {
		return e.gracefulErr
	}
	return e.stopErr
}

func (e *fakeEngine) CreateIfNotExists(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.creates++
	return e.createErr
}

func (e *fakeEngine) MaxConcurrentActivityWorkItems() int      { return 10 }
func (e *fakeEngine) MaxConcurrentOrchestrationWorkItems() int { return 5 }

func (e *fakeEngine) counts() (starts, stops, creates int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts, e.stops, e.creates
}

// recordingService appends its lifecycle calls to a shared trail.
type recordingService struct {
	name     string
	trail    *trail
	startErr error
	stopWait chan struct{}
}

type trail struct {
	mu    sync.Mutex
	steps []string
}

func (t *trail) add(s string) {
	t.mu.Lock()
	t.steps = append(t.steps, s)
	t.mu.Unlock()
}

func (t *trail) get() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.steps...)
}

func (s *recordingService) Start(context.Context) error {
	s.trail.add("start " + s.name)
	return s.startErr
}

func (s *recordingService) Stop(context.Context) error {
	if s.stopWait != nil {
		<-s.stopWait
	}
	s.trail.add("stop " + s.name)
	return nil
}
