// Package lockstate implements the Lock State singleton described in
// spec.md §3–§4.2: the root-local mutex, the holder bookkeeping, the
// drain/pdb-complete events, the blocklist, and the release path.
//
// Unlike the source this was distilled from, Go signal delivery does not
// run handler code on a foreign "signal context" — os/signal hands signals
// to an ordinary goroutine — so State protects its fields with a mutex
// rather than requiring lock-free snapshot reads (spec §9, "Signal handler
// re-entrancy").
package lockstate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/joeycumines/go-actorlock/actorid"
)

// leasePhase models the shielded critical region as an explicit state
// machine, per spec §9 Design Notes ("model the critical region as a state
// machine with an explicit releasing terminal state ... not as
// stack-unwinding cleanup").
type leasePhase int

const (
	phaseIdle leasePhase = iota
	phaseAcquiring
	phaseHeld
	phaseReleasing
	phaseReleased
)

// ErrLockCorrupted is returned when Release observes
// that the mutex is held by a task other than the one recorded as owner —
// spec §7: "Double release ... is a programming error and is raised."
var ErrLockCorrupted = errors.New("lockstate: owner mismatch on release")

// State is the process-wide, root-local singleton described in spec §3. A
// non-root actor also holds a State value, but only uses the
// pdb-complete-event, local-task-in-debug, repl-handle and
// saved-sigint-handler fields — the mutex and holder-uid fields are never
// touched outside the root.
type State struct {
	mu sync.Mutex

	mutex fifoMutex
	phase leasePhase

	holderUID      actorid.ID
	hasHolder      bool
	holderTaskName string
	leaseCancel    context.CancelFunc

	drainEvent       *Event
	pdbCompleteEvent *Event
	released         *Event // resolves spec §9 Open Question 1, see SPEC_FULL.md

	blocklist actorid.Set

	replHandle any

	restoreSigint func() // opaque; sigintshield supplies/consumes this

	localTaskInDebug string

	shuttingDown bool
}

// New returns a freshly initialized State: mutex unheld, drain event set
// (nothing queued or owned), pdb-complete-event unset.
func New() *State {
	return &State{
		drainEvent:       NewSetEvent(),
		pdbCompleteEvent: NewEvent(),
		released:         NewSetEvent(),
		phase:            phaseIdle,
	}
}

// Blocklist returns the current blocklist snapshot.
func (s *State) Blocklist() actorid.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(actorid.Set, len(s.blocklist))
	for id := range s.blocklist {
		out[id] = struct{}{}
	}
	return out
}

// Block adds id to the blocklist (operator escape hatch, spec §3).
func (s *State) Block(id actorid.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocklist = s.blocklist.Add(id)
}

// IsBlocked reports whether id is on the blocklist.
func (s *State) IsBlocked(id actorid.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocklist.Contains(id)
}

// Snapshot is the consistent, lock-guarded read used by the SIGINT shield
// (spec §4.5) and by diagnostics: it never observes a torn combination of
// holder/repl/lease fields.
type Snapshot struct {
	HolderUID      actorid.ID
	HasHolder      bool
	HolderTaskName string
	HasReplHandle  bool
	HasLeaseCancel bool
}

// Snapshot returns a consistent read of the fields the SIGINT shield needs.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		HolderUID:      s.holderUID,
		HasHolder:      s.hasHolder,
		HolderTaskName: s.holderTaskName,
		HasReplHandle:  s.replHandle != nil,
		HasLeaseCancel: s.leaseCancel != nil,
	}
}

// LocalTaskInDebug returns the name of the local task currently recorded as
// being in a debug session in this actor, or "" if none.
func (s *State) LocalTaskInDebug() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localTaskInDebug
}

// SetLocalTaskInDebug records taskName as the local task in a debug
// session.
func (s *State) SetLocalTaskInDebug(taskName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localTaskInDebug = taskName
}

// PDBCompleteEvent returns the per-process event set when the local REPL
// exits (spec §3). If it was already set from a previous session, a fresh
// unset Event replaces it first (spec §4.1 step 1).
func (s *State) PDBCompleteEvent() *Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pdbCompleteEvent.IsSet() {
		s.pdbCompleteEvent = NewEvent()
	}
	return s.pdbCompleteEvent
}

// ReleasedEvent returns the event set once a Release call has fully
// completed, including sigint-handler restoration. Reentrant waiters block
// on this instead of the fixed sleep the original implementation used (see
// SPEC_FULL.md, Open Question 1).
func (s *State) ReleasedEvent() *Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// DrainEvent returns the current drain event (spec §3: set iff the mutex
// is neither owned nor awaited).
func (s *State) DrainEvent() *Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drainEvent
}

// ReplHandle returns the currently active REPL handle, or nil.
func (s *State) ReplHandle() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replHandle
}

// AcquireForRoot performs the root-side portion of Breakpoint Entry step 2
// (spec §4.1 "Root process" branch): it acquires the mutex (blocking and
// shielded: it takes no context and does not return until the mutex is
// held), then records identity/task/repl-handle.
//
// holderUID is the root's own identity when the root itself is debugging.
func (s *State) AcquireForRoot(holderUID actorid.ID, taskName string, repl any) {
	s.mu.Lock()
	if s.drainEvent.IsSet() {
		s.drainEvent = NewEvent()
	}
	s.phase = phaseAcquiring
	s.mu.Unlock()

	s.mutex.Lock()

	s.mu.Lock()
	s.phase = phaseHeld
	s.hasHolder = true
	s.holderUID = holderUID
	s.holderTaskName = taskName
	s.replHandle = repl
	s.released = NewEvent()
	s.mu.Unlock()
}

// SetRestoreSigint records the function that undoes whatever the SIGINT
// shield installed for the session now starting (spec §4.3 step 2 /
// step 8). It must be called before Acquire* so Release can restore the
// handler unconditionally, even on an error path.
func (s *State) SetRestoreSigint(restore func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restoreSigint = restore
}

// AcquireForLease performs the root lease task's acquisition (spec §4.3
// steps 3–4): acquire the mutex, then record subactorUID as holder.
func (s *State) AcquireForLease(ctx context.Context, cancel context.CancelFunc, subactorUID actorid.ID) {
	s.mu.Lock()
	if s.drainEvent.IsSet() {
		s.drainEvent = NewEvent()
	}
	s.phase = phaseAcquiring
	s.mu.Unlock()

	s.mutex.Lock()

	s.mu.Lock()
	s.phase = phaseHeld
	s.hasHolder = true
	s.holderUID = subactorUID
	s.leaseCancel = cancel
	s.released = NewEvent()
	s.mu.Unlock()
	_ = ctx // acquisition itself is uncancellable by design (shielded), see fifoMutex.Lock
}

// Release implements spec §4.2. It is idempotent: calling it a second time
// (e.g. from overlapping REPL quit/continue hooks) is a silent no-op,
// unless a different owner is recorded, which is a programming error
// (ErrLockCorrupted).
//
// owner, if non-empty, is the task name the caller believes it is releasing
// on behalf of; pass "" when release is unconditional (e.g. the lease
// task's own cleanup).
func (s *State) Release(owner string) error {
	s.mu.Lock()
	if s.phase == phaseReleased || s.phase == phaseIdle {
		s.mu.Unlock()
		return nil
	}
	if owner != "" && s.holderTaskName != "" && owner != s.holderTaskName {
		s.mu.Unlock()
		return fmt.Errorf("%w: owner %q, release requested by %q", ErrLockCorrupted, s.holderTaskName, owner)
	}
	s.phase = phaseReleasing
	remaining := s.mutex.queueLen()
	s.mu.Unlock()

	s.mutex.Unlock()

	s.mu.Lock()
	s.hasHolder = false
	s.holderUID = actorid.ID{}
	s.holderTaskName = ""
	s.localTaskInDebug = ""
	s.leaseCancel = nil
	s.replHandle = nil
	if remaining == 0 {
		s.drainEvent.Set()
	}
	s.pdbCompleteEvent.Set()
	restore := s.restoreSigint
	s.restoreSigint = nil
	s.phase = phaseReleased
	released := s.released
	s.mu.Unlock()

	if restore != nil {
		restore()
	}
	released.Set()
	return nil
}

// ReleaseLocal implements the non-root side of spec §4.2: it is what a
// child actor's REPL quit/continue hooks and requester cleanup call. It
// never touches the mutex or holder-uid (those exist only in the root's
// State) — only the fields local to this actor: local-task-in-debug,
// pdb-complete-event, saved-sigint-handler, repl-handle.
func (s *State) ReleaseLocal(owner string) error {
	s.mu.Lock()
	if owner != "" && s.localTaskInDebug != "" && owner != s.localTaskInDebug {
		s.mu.Unlock()
		return fmt.Errorf("%w: owner %q, release requested by %q", ErrLockCorrupted, s.localTaskInDebug, owner)
	}
	s.localTaskInDebug = ""
	s.replHandle = nil
	s.pdbCompleteEvent.Set()
	restore := s.restoreSigint
	s.restoreSigint = nil
	// A fresh event, so a waiter woken by pdb-complete-event above still
	// blocks until the restore below has run.
	released := NewEvent()
	s.released = released
	s.mu.Unlock()

	if restore != nil {
		restore()
	}
	released.Set()
	return nil
}

// MarkShuttingDown records that the root itself is mid-cancellation (spec
// §9 Open Questions, item 2): a lease request arriving after this point is
// swallowed by the caller rather than started, per the behavior preserved
// from the source this was distilled from.
func (s *State) MarkShuttingDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuttingDown = true
}

// IsShuttingDown reports whether MarkShuttingDown has been called.
func (s *State) IsShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuttingDown
}

// CancelLease forcibly unwinds the currently held lease, if any, by
// invoking its cancel handle (spec §3 "lease-cancel-handle"; used when the
// root itself is torn down while a descendant holds the TTY).
func (s *State) CancelLease() {
	s.mu.Lock()
	cancel := s.leaseCancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
