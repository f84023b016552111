// Package sigintshield implements the SIGINT Shield, spec.md §4.5: a
// per-process signal handler that replaces the default interrupt
// disposition while a debug session is in flight anywhere in the tree, so
// Ctrl-C at the terminal does not unwind the root or tear down IPC
// mid-session.
//
// Grounded on the example pack's own exit-signal handler
// (prompt.Prompt.handleExitSignals): a buffered os.Signal channel fed by
// signal.Notify, drained by one goroutine, stopped by closing a stop
// channel. Unlike that handler this one never exits on its own signal;
// decision logic (decide, in decision.go) is kept pure and directly
// callable so tests never need to raise a real process signal.
package sigintshield

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joeycumines/go-catrate"

	"github.com/joeycumines/go-actorlock/actoriface"
	"github.com/joeycumines/go-actorlock/actorlog"
	"github.com/joeycumines/go-actorlock/internal/lockstate"
)

// defaultLimiterRates bounds swallowed-signal log lines to 5 per second,
// per SPEC_FULL.md §4.8.
var defaultLimiterRates = map[time.Duration]int{
	time.Second: 5,
}

const swallowLogCategory = "sigintshield.swallow"

// Shield is constructed once per actor (process) and activated for the
// lifetime of each debug session. DoCancel is the actor's cooperative
// cancellation hook (spec §4.5 step 6): called with force=false the first
// time this shield decides to cancel, and force=true on any subsequent
// call, matching "if it has already been asked, raise the interrupt to
// force-unwind the event loop."
type Shield struct {
	Runtime  actoriface.Runtime
	DoCancel func(force bool)
	Log      actorlog.Logger
	Limiter  *catrate.Limiter // nil uses a built-in default

	mu          sync.Mutex
	active      bool
	state       *lockstate.State
	sigCh       chan os.Signal
	stopCh      chan struct{}
	askedCancel bool
}

func (sh *Shield) log() actorlog.Logger {
	if sh.Log == nil {
		return actorlog.Nop
	}
	return sh.Log
}

func (sh *Shield) limiter() *catrate.Limiter {
	if sh.Limiter == nil {
		sh.mu.Lock()
		if sh.Limiter == nil {
			sh.Limiter = catrate.NewLimiter(defaultLimiterRates)
		}
		l := sh.Limiter
		sh.mu.Unlock()
		return l
	}
	return sh.Limiter
}

// Activate installs the shield if it is not already active (idempotent:
// nested sessions in the same process, e.g. the root both leasing a child
// and itself being debugged, share one installed handler) and registers
// its restore callback with state via [lockstate.State.SetRestoreSigint],
// so the session's eventual Release call undoes the installation (spec
// §4.3 step 2 / step 8) without leaseserver or requester needing to know
// anything about signals.
func (sh *Shield) Activate(state *lockstate.State) {
	sh.mu.Lock()
	state.SetRestoreSigint(sh.deactivate)
	if sh.active {
		sh.mu.Unlock()
		return
	}
	sh.active = true
	sh.state = state
	sh.sigCh = make(chan os.Signal, 8)
	sh.stopCh = make(chan struct{})
	sigCh, stopCh := sh.sigCh, sh.stopCh
	sh.mu.Unlock()

	signal.Notify(sigCh, syscall.SIGINT)
	go sh.watch(sigCh, stopCh)
}

func (sh *Shield) watch(sigCh chan os.Signal, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-sigCh:
			sh.handle()
		}
	}
}

// deactivate is the restore callback registered with lockstate.State. It
// is idempotent: calling it when the shield is not active is a no-op.
func (sh *Shield) deactivate() {
	sh.mu.Lock()
	if !sh.active {
		sh.mu.Unlock()
		return
	}
	sh.active = false
	sh.askedCancel = false
	sigCh, stop := sh.sigCh, sh.stopCh
	sh.sigCh, sh.stopCh, sh.state = nil, nil, nil
	sh.mu.Unlock()

	signal.Stop(sigCh)
	close(stop)
}

// handle runs the shield's decision logic (spec §4.5 steps 1–7) against a
// consistent snapshot of lock state and the actor's current peer/parent
// reachability, then acts on the verdict.
func (sh *Shield) handle() {
	sh.mu.Lock()
	state := sh.state
	sh.mu.Unlock()
	if state == nil {
		return
	}

	actor := sh.Runtime.Current()
	snap := state.Snapshot()
	_, parentAlive := actor.ParentPortal()

	self := actor.Identity()
	holderLive := snap.HasHolder && (snap.HolderUID == self || actor.Peers().Connected(snap.HolderUID))

	v := decide(input{
		isRoot:      actor.IsRoot(),
		self:        self,
		snap:        snap,
		holderLive:  holderLive,
		parentAlive: parentAlive,
	})

	switch v.action {
	case actionSwallow:
		sh.swallow(v.reason)
		if v.cancelLease {
			state.CancelLease()
			sh.deactivate()
		}
	case actionCancel:
		sh.doCancel()
	}
}

func (sh *Shield) swallow(reason string) {
	if t, ok := sh.limiter().Allow(swallowLogCategory); ok {
		_ = t
		sh.log().Info("sigint swallowed", actorlog.F("reason", reason))
	}
	sh.flushREPL()
}

func (sh *Shield) doCancel() {
	sh.mu.Lock()
	force := sh.askedCancel
	sh.askedCancel = true
	sh.mu.Unlock()

	sh.log().Warn("sigint: no live holder, cancelling", actorlog.F("force", force))
	if sh.DoCancel != nil {
		sh.DoCancel(force)
	}
}
