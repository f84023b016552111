package sigintshield

import (
	"github.com/joeycumines/go-actorlock/actorid"
	"github.com/joeycumines/go-actorlock/internal/lockstate"
)

type action int

const (
	actionSwallow action = iota
	actionCancel
)

// input is everything handle's decision needs, captured by value so decide
// is pure and directly testable (grounded on prompt/signal_test.go's
// style of calling handler logic directly rather than only through a real
// delivered signal).
type input struct {
	isRoot      bool
	self        actorid.ID
	snap        lockstate.Snapshot
	holderLive  bool // step 2: live peer channel to snap.HolderUID
	parentAlive bool
}

type verdict struct {
	action      action
	reason      string
	cancelLease bool // step 4: also forcibly cancel the held lease
}

// decide implements spec §4.5 steps 2–6. The "ancestor" check in step 5 is
// simplified to "holder is this actor itself"; see DESIGN.md for why the
// full ancestor-chain probe is out of scope for the bounded demo tree this
// repo ships.
func decide(in input) verdict {
	switch {
	case in.snap.HasHolder && !in.holderLive:
		// step 2: holder recorded but unreachable — never hang on a
		// vanished child.
		return verdict{action: actionCancel}

	case in.isRoot && in.snap.HasHolder && in.holderLive:
		// step 3
		return verdict{action: actionSwallow, reason: "descendant holds the lock"}

	case in.isRoot && !in.snap.HasHolder && in.snap.HasReplHandle:
		// step 4
		return verdict{
			action:      actionSwallow,
			reason:      "local REPL active",
			cancelLease: in.snap.HasLeaseCancel,
		}

	case !in.isRoot && in.snap.HasHolder && in.snap.HolderUID == in.self && in.parentAlive:
		// step 5
		return verdict{action: actionSwallow, reason: "local session active, parent alive"}

	default:
		// step 6
		return verdict{action: actionCancel}
	}
}
