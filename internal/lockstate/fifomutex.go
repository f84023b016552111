package lockstate

import "sync"

// fifoMutex is a strict first-in-first-out async mutex: waiters are granted
// ownership in the exact order they called Lock (spec §3: "Mutex (strict
// FIFO)"). The standard library's sync.Mutex only approximates this under
// its starvation mode, so it is not suitable here — see DESIGN.md for the
// "why hand-rolled, not library-sourced" note.
type fifoMutex struct {
	mu      sync.Mutex
	held    bool
	waiters []chan struct{}
}

// Lock blocks until the caller owns the mutex. It is intentionally
// uncancellable: every acquisition in this subsystem happens inside a
// shielded scope (spec §4.3, §5), so the caller is expected to never need
// to abandon a pending Lock call.
func (m *fifoMutex) Lock() {
	m.mu.Lock()
	if !m.held {
		m.held = true
		m.mu.Unlock()
		return
	}
	wait := make(chan struct{})
	m.waiters = append(m.waiters, wait)
	m.mu.Unlock()
	<-wait
}

// Unlock releases the mutex, handing it directly to the longest-waiting
// queued caller, if any (preserving FIFO order across the handoff).
//
// Unlock panics if the mutex is not currently held — a double-unlock
// bug belongs to the caller, which is expected to guard against it (see
// State.Release's idempotency handling, which never calls Unlock twice).
func (m *fifoMutex) Unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.held {
		panic("lockstate: Unlock of unheld mutex")
	}
	if len(m.waiters) == 0 {
		m.held = false
		return
	}
	next := m.waiters[0]
	m.waiters = m.waiters[1:]
	close(next)
}

// queueLen reports the number of callers currently blocked in Lock. Used
// only to decide whether the drain event may be set on release.
func (m *fifoMutex) queueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}
