package debuglock

import (
	"context"
	"time"

	"github.com/joeycumines/go-catrate"

	"github.com/joeycumines/go-actorlock/actoriface"
	"github.com/joeycumines/go-actorlock/actorlog"
	"github.com/joeycumines/go-actorlock/internal/lockstate"
)

// drainLogRates bounds the Drain Waiter's per-poll log line to 2 per
// second (SPEC_FULL.md §4.8 — the original logs unconditionally on every
// poll, which floods the log under a long debug session).
var drainLogRates = map[time.Duration]int{time.Second: 2}

const drainLogCategory = "debuglock.drain"

var drainLimiter = catrate.NewLimiter(drainLogRates)

// MaybeWaitForDebugger implements the Drain Waiter, spec §4.6: used by the
// surrounding runtime on root-side error or shutdown to defer process-tree
// teardown while a descendant still owns the TTY.
//
// debugMode mirrors rt.DebugMode(); childInDebug is the caller's own
// assertion that a child is in debug (spec step 1: "if debug mode is off
// and the caller did not assert a child is in debug, return immediately").
func MaybeWaitForDebugger(ctx context.Context, rt actoriface.Runtime, state *lockstate.State, log actorlog.Logger, childInDebug bool, opts ...Option) error {
	if log == nil {
		log = actorlog.Nop
	}
	if !rt.DebugMode() && !childInDebug {
		return nil
	}
	if !rt.Current().IsRoot() {
		return nil
	}

	o := resolveOptions(opts)
	for i := 0; i < o.PollSteps; i++ {
		snap := state.Snapshot()
		if !snap.HasHolder {
			return nil
		}

		if t, ok := drainLimiter.Allow(drainLogCategory); ok {
			_ = t
			log.Debug("drain waiter polling", actorlog.F("holder", snap.HolderUID.String()), actorlog.F("step", i))
		}

		pollCtx, cancel := context.WithTimeout(ctx, o.PollDelay)
		err := state.DrainEvent().Wait(pollCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}
