// Package requester implements the Child Requester, spec.md §4.4
// ("wait_for_parent_stdin_hijack"): the per-breakpoint task a child actor
// runs under a shielded scope to obtain the root's lease on the TTY.
package requester

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeycumines/go-actorlock/actoriface"
	"github.com/joeycumines/go-actorlock/actorlog"
	"github.com/joeycumines/go-actorlock/internal/lockstate"
	"github.com/joeycumines/go-actorlock/rpcwire"
)

// ErrBlocked is returned when the root reports the caller's identity is on
// the blocklist (spec §4.3 step 1 / §7 "Blocked acquirer").
var ErrBlocked = errors.New("requester: subactor is blocked")

// Session is the REPL-facing handle published once the lease is granted
// (spec §4.4 step 4: "signal the local breakpoint entry that the lock is
// held ... so the breakpoint entry can run the REPL"). debuglock passes
// this to debug_func as the repl_handle argument.
type Session struct {
	rpc *rpcwire.Session
}

// Result is what Run sends on statusCh: either a granted Session, or an
// error if the lease could not be obtained (including [ErrBlocked]).
type Result struct {
	Session *Session
	Err     error
}

// Run executes spec §4.4 steps 1–8. It is meant to be started on the
// actor's nursery (spec §4.1 step 2, "start the Child Requester on the
// actor's long-lived service nursery"); statusCh receives exactly one
// [Result], fulfilling step 4, after which Run continues running until
// the debug session ends (steps 5–8) and reports the outcome on doneCh.
func Run(ctx context.Context, actor actoriface.ActorContext, state *lockstate.State, log actorlog.Logger, statusCh chan<- Result, doneCh chan<- error) {
	if log == nil {
		log = actorlog.Nop
	}

	portal, err := actor.RootPortal()
	if err != nil {
		statusCh <- Result{Err: fmt.Errorf("requester: no portal to root: %w", err)}
		doneCh <- nil
		return
	}

	sess, err := portal.OpenLock(ctx, actor.Identity())
	if err != nil {
		statusCh <- Result{Err: fmt.Errorf("requester: open lock context: %w", err)}
		doneCh <- nil
		return
	}

	started, err := sess.Started(ctx)
	if err != nil {
		_ = sess.Close()
		statusCh <- Result{Err: fmt.Errorf("requester: await started: %w", err)}
		doneCh <- nil
		return
	}

	switch started {
	case rpcwire.ValueBlocked:
		_ = sess.Close()
		statusCh <- Result{Err: ErrBlocked}
		doneCh <- nil
		return
	case rpcwire.ValueLocked:
	default:
		_ = sess.Close()
		statusCh <- Result{Err: fmt.Errorf("requester: unexpected started value %q", started)}
		doneCh <- nil
		return
	}

	// Take the pdb-complete-event before publishing the session: once it is
	// published the REPL may finish and set the event at any moment, and
	// PDBCompleteEvent replaces an already-set event with a fresh one.
	pdbComplete := state.PDBCompleteEvent()

	// step 4: publish the session so the breakpoint entry can run the REPL.
	statusCh <- Result{Session: &Session{rpc: sess}}

	// step 5: await pdb-complete-event, then send pdb_unlock.
	if err := pdbComplete.Wait(ctx); err != nil {
		_ = sess.Close()
		log.Warn("requester: cancelled awaiting pdb-complete-event", actorlog.F("error", err.Error()))
		doneCh <- err
		return
	}
	if err := sess.SendUnlock(ctx); err != nil {
		_ = sess.Close()
		doneCh <- fmt.Errorf("requester: send pdb_unlock: %w", err)
		return
	}

	// step 6: await the context's terminal result.
	result, err := sess.Result(ctx)
	_ = sess.Close()
	if err != nil {
		// step 7: ContextCancelled from the root — log and re-raise so the
		// child unwinds.
		log.Error("requester: context cancelled by root", err)
		doneCh <- err
		return
	}
	if result != rpcwire.ValueUnlockComplete {
		doneCh <- fmt.Errorf("requester: unexpected terminal result %q", result)
		return
	}
	doneCh <- nil
}
