package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Supervisor runs the audio capture loop, ASR stage, and Brain stage
// goroutines together and propagates the first fatal error into a shared
// shutdown signal. Only the capture loop returns a fatal error in
// practice (the ASR and Brain stages turn every failure of their own into
// a dispatched state machine event instead), but any supervised goroutine
// may trigger shutdown for the others.
type Supervisor struct {
	group *errgroup.Group
	ctx   context.Context

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSupervisor builds a Supervisor whose Context is cancelled as soon as
// any supervised fatal goroutine returns a non-nil error, or parent is
// cancelled.
func NewSupervisor(parent context.Context) *Supervisor {
	group, ctx := errgroup.WithContext(parent)
	return &Supervisor{group: group, ctx: ctx, stop: make(chan struct{})}
}

// Context returns the errgroup-derived context, cancelled on first fatal
// error.
func (s *Supervisor) Context() context.Context {
	return s.ctx
}

// StopChan exposes the shutdown signal every supervised goroutine selects
// on.
func (s *Supervisor) StopChan() <-chan struct{} {
	return s.stop
}

// Stop closes the shutdown signal exactly once, however many times it is
// called.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// RunFatal supervises a goroutine whose error is fatal to the whole
// pipeline: a non-nil return triggers Stop for every other supervised
// goroutine before propagating through Wait.
func (s *Supervisor) RunFatal(fn func(stop <-chan struct{}) error) {
	s.group.Go(func() error {
		err := fn(s.stop)
		if err != nil {
			s.Stop()
		}
		return err
	})
}

// RunWorker supervises a worker goroutine with no fatal error of its own;
// it runs until Stop is called.
func (s *Supervisor) RunWorker(fn func(stop <-chan struct{})) {
	s.group.Go(func() error {
		fn(s.stop)
		return nil
	})
}

// Wait blocks until every supervised goroutine has returned and reports
// the first fatal error, if any.
func (s *Supervisor) Wait() error {
	return s.group.Wait()
}
