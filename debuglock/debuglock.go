// Package debuglock implements Breakpoint Entry, spec.md §4.1: the only
// user-visible operation of the core subsystem — "suspend this task until
// it is safe to run the REPL here, then run it" — plus the Drain Waiter,
// §4.6 ("maybe_wait_for_debugger").
package debuglock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeycumines/go-actorlock/actorid"
	"github.com/joeycumines/go-actorlock/actoriface"
	"github.com/joeycumines/go-actorlock/actorlog"
	"github.com/joeycumines/go-actorlock/internal/lockstate"
	"github.com/joeycumines/go-actorlock/replhook"
	"github.com/joeycumines/go-actorlock/requester"
	"github.com/joeycumines/go-actorlock/sigintshield"
)

// DebugFunc performs the synchronous REPL invocation (set_trace for
// voluntary stops, post_mortem for crash inspection), spec §4.1 "Inputs".
// repl is whatever the acquisition path produced: a *replhook.REPL on the
// root, a *requester.Session on a child.
type DebugFunc func(actor actoriface.ActorContext, repl any) error

// Options configures the optional behaviors SPEC_FULL.md §6 adds on top of
// spec.md: poll tuning for the Drain Waiter, read from
// ACTORLOCK_POLL_STEPS / ACTORLOCK_POLL_DELAY by the caller if desired,
// never read directly here (the teacher's own functional-options idiom:
// config is passed explicitly).
type Options struct {
	PollSteps int
	PollDelay time.Duration
}

// Option configures Options.
type Option func(*Options)

// WithPollSteps overrides the Drain Waiter's poll count (default 5).
func WithPollSteps(n int) Option { return func(o *Options) { o.PollSteps = n } }

// WithPollDelay overrides the Drain Waiter's per-poll delay (default
// 50ms).
func WithPollDelay(d time.Duration) Option { return func(o *Options) { o.PollDelay = d } }

func resolveOptions(opts []Option) Options {
	o := Options{PollSteps: 5, PollDelay: 50 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// PostMortem implements the post_mortem() operation (spec §4.7 / §6): the
// same acquisition path as a voluntary breakpoint, except enter drives the
// REPL's exception-inspection entry rather than its ordinary set_trace
// entry. enter only runs on the root branch, where repl is a real
// [*replhook.REPL]; on a child branch repl is the [*requester.Session]
// handle, and enter is skipped (post-mortem inspection has nowhere local
// to run without an actual REPL object).
func PostMortem(ctx context.Context, rt actoriface.Runtime, state *lockstate.State, shield *sigintshield.Shield, log actorlog.Logger, taskName string, enter func(actor actoriface.ActorContext, repl *replhook.REPL) error) error {
	return Enter(ctx, rt, state, shield, log, taskName, func(actor actoriface.ActorContext, repl any) error {
		r, ok := repl.(*replhook.REPL)
		if !ok {
			return nil
		}
		return enter(actor, r)
	})
}

// AcquireDebugLock implements the acquire_debug_lock(subactor_uid)
// operation (spec §6): an async scoped acquisition that holds the lock
// across a user-defined block without entering a REPL. It reuses Enter's
// acquisition machinery — block plays the role DebugFunc plays for
// breakpoint()/post_mortem(), except it is ordinary code rather than a
// REPL invocation, which Enter already permits (it never requires fn to
// touch the repl handle at all). subactorUID must name the calling actor
// itself: the acquisition always runs synchronously on the current
// actor's own event-loop thread (spec §5), so it can only ever be
// acquiring on its own behalf.
func AcquireDebugLock(ctx context.Context, rt actoriface.Runtime, state *lockstate.State, shield *sigintshield.Shield, log actorlog.Logger, subactorUID actorid.ID, taskName string, block func(actor actoriface.ActorContext) error) error {
	actor := rt.Current()
	if subactorUID != actor.Identity() {
		return fmt.Errorf("debuglock: acquire_debug_lock: subactor_uid %s does not match current actor %s", subactorUID, actor.Identity())
	}
	return Enter(ctx, rt, state, shield, log, taskName, func(actor actoriface.ActorContext, _ any) error {
		return block(actor)
	})
}

// Enter implements spec §4.1 steps 1–4. taskName identifies the calling
// root-local task (root branch) or the calling child task (child branch).
func Enter(ctx context.Context, rt actoriface.Runtime, state *lockstate.State, shield *sigintshield.Shield, log actorlog.Logger, taskName string, fn DebugFunc) error {
	if log == nil {
		log = actorlog.Nop
	}

	// step 1
	_ = state.PDBCompleteEvent()

	actor := rt.Current()
	if actor.IsRoot() {
		return enterRoot(ctx, actor, state, shield, log, taskName, fn)
	}
	return enterChild(ctx, actor, state, shield, log, taskName, fn)
}

func enterRoot(ctx context.Context, actor actoriface.ActorContext, state *lockstate.State, shield *sigintshield.Shield, log actorlog.Logger, taskName string, fn DebugFunc) error {
	snap := state.Snapshot()
	if snap.HasHolder && snap.HolderUID == actor.Identity() {
		// root-side reentrancy: return immediately, spec §4.1 step 2.
		return nil
	}

	shield.Activate(state)

	// The root's local REPL runs directly against this process's own
	// stdio; its continue/quit hooks invoke Release in a finally clause
	// (spec §4.2 / §4.7), wired here via Releaser rather than by the REPL
	// package knowing anything about lockstate.
	repl := &replhook.REPL{
		Owner:   taskName,
		In:      os.Stdin,
		Out:     os.Stdout,
		Execute: replhook.PrintExecutor(os.Stdout),
		IsExit:  replhook.DefaultExitChecker,
		Log:     log,
	}
	repl.Release = func() error { return state.Release(taskName) }

	state.AcquireForRoot(actor.Identity(), taskName, repl)
	state.SetLocalTaskInDebug(taskName)
	log.Info("breakpoint entered (root)", actorlog.F("task", taskName))

	var runErr error
	func() {
		defer func() {
			if releaseErr := state.Release(taskName); releaseErr != nil && runErr == nil {
				runErr = releaseErr
			}
		}()
		runErr = fn(actor, repl)
	}()
	return runErr
}

func enterChild(ctx context.Context, actor actoriface.ActorContext, state *lockstate.State, shield *sigintshield.Shield, log actorlog.Logger, taskName string, fn DebugFunc) error {
	current := state.LocalTaskInDebug()
	switch {
	case current == taskName && current != "":
		// reentrancy: checkpoint once, return without acquiring.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	case current != "":
		// another local task is in debug: wait for it, then proceed.
		// Resolves SPEC_FULL.md Open Question 1: await the explicit
		// "fully released" event instead of a fixed sleep.
		if err := state.PDBCompleteEvent().Wait(ctx); err != nil {
			return err
		}
		if err := state.ReleasedEvent().Wait(ctx); err != nil {
			return err
		}
	}

	state.SetLocalTaskInDebug(taskName)
	shield.Activate(state)

	statusCh := make(chan requester.Result, 1)
	doneCh := make(chan error, 1)
	if err := actor.Nursery().StartSoon("requester:"+taskName, func(taskCtx context.Context) {
		requester.Run(taskCtx, actor, state, log, statusCh, doneCh)
	}); err != nil {
		// "starting the requester fails during self-cancellation": release
		// the mutex (local state) and return quietly.
		_ = state.ReleaseLocal(taskName)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("debuglock: start requester: %w", err)
	}

	res := <-statusCh
	if res.Err != nil {
		_ = state.ReleaseLocal(taskName)
		if errors.Is(res.Err, requester.ErrBlocked) {
			log.Warn("breakpoint entry blocked", actorlog.F("task", taskName))
			return res.Err
		}
		return res.Err
	}

	var runErr error
	runErr = fn(actor, res.Session)
	if waitErr := <-doneCh; waitErr != nil && runErr == nil {
		runErr = waitErr
	}
	return runErr
}
