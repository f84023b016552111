package lockstate

import (
	"context"
	"sync"
)

// Event is an edge-triggered, one-shot event: once Set, it stays set until
// replaced by a fresh Event (see State's drain-event semantics, spec §4.3
// step 4 — "unset it and create a fresh unset event").
type Event struct {
	mu    sync.Mutex
	ch    chan struct{}
	state bool
}

// NewEvent returns a fresh, unset Event.
func NewEvent() *Event {
	return &Event{ch: make(chan struct{})}
}

// NewSetEvent returns a fresh Event that is already set. Useful at startup,
// where "no one holds the lock" is the initial, correct state.
func NewSetEvent() *Event {
	e := NewEvent()
	e.Set()
	return e
}

// Set marks the event as set, waking every current and future Wait call.
// Idempotent.
func (e *Event) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state {
		e.state = true
		close(e.ch)
	}
}

// IsSet reports the current state without blocking.
func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Wait blocks until the event is set or ctx is done, whichever comes first.
func (e *Event) Wait(ctx context.Context) error {
	e.mu.Lock()
	ch := e.ch
	e.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
