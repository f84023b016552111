// Package sched provides the single-threaded cooperative dispatcher that
// backs one actor's event loop (spec §5: "each actor runs a single-threaded
// cooperative scheduler, one OS thread per process").
//
// It satisfies the narrow [inprocgrpc.Loop] shape
// (Submit(func()) error / SubmitInternal(func()) error) that the in-process
// RPC channel needs in order to keep all stream state on one goroutine,
// without pulling in the full epoll/kqueue-backed go-eventloop package,
// which this project has no use for (see DESIGN.md).
package sched

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopStopped is returned by Submit/SubmitInternal once the loop has
// been stopped.
var ErrLoopStopped = errors.New("sched: loop is stopped")

// Loop runs submitted funcs one at a time, in priority order (internal
// before external), on a single goroutine.
type Loop struct {
	external chan func()
	internal chan func()
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// New creates a Loop. Call Run to start executing submitted tasks; Run
// blocks until ctx is cancelled or Stop is called.
func New() *Loop {
	return &Loop{
		external: make(chan func(), 256),
		internal: make(chan func(), 256),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Run executes the dispatch loop on the calling goroutine until ctx is
// cancelled or Stop is called. Run is the one goroutine that "owns" every
// task submitted to this Loop.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		// drain internal tasks first, matching the priority ordering
		// go-eventloop documents for its internal queue.
		select {
		case fn := <-l.internal:
			fn()
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopped:
			return nil
		case fn := <-l.internal:
			fn()
		case fn := <-l.external:
			fn()
		}
	}
}

// Stop halts Run as soon as it is next scheduled. Safe to call multiple
// times and from any goroutine.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopped) })
}

// Done returns a channel closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Submit enqueues fn for execution on the loop goroutine, at normal
// priority.
func (l *Loop) Submit(fn func()) error {
	select {
	case <-l.stopped:
		return ErrLoopStopped
	default:
	}
	select {
	case l.external <- fn:
		return nil
	case <-l.stopped:
		return ErrLoopStopped
	}
}

// SubmitInternal enqueues fn for execution on the loop goroutine ahead of
// any pending external tasks.
func (l *Loop) SubmitInternal(fn func()) error {
	select {
	case <-l.stopped:
		return ErrLoopStopped
	default:
	}
	select {
	case l.internal <- fn:
		return nil
	case <-l.stopped:
		return ErrLoopStopped
	}
}
