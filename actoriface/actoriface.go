// Package actoriface defines the narrow runtime traits spec.md's Design
// Notes (§9, "break the cycle at interface level") require: debuglock,
// requester, and sigintshield depend only on these, never on the concrete
// actorsim runtime, so a real multi-process transport can satisfy them
// without touching core packages.
package actoriface

import (
	"context"

	"github.com/joeycumines/go-actorlock/actorid"
	"github.com/joeycumines/go-actorlock/rpcwire"
)

// Runtime is the per-process collaborator core packages ask for the current
// actor and for global debug-mode status (spec §4.1 step 1).
type Runtime interface {
	Current() ActorContext
	DebugMode() bool
}

// ActorContext is everything a single actor's core tasks need: its own
// identity, whether it's the root, how to reach its parent and the root,
// a nursery for long-lived shielded tasks, and the peer registry the
// SIGINT shield probes for liveness.
type ActorContext interface {
	Identity() actorid.ID
	IsRoot() bool
	// ParentPortal returns a live portal to the parent actor, or ok=false
	// if this actor is the root or the parent is unreachable.
	ParentPortal() (rpcwire.Portal, bool)
	// RootPortal returns a portal to the tree root, usable from any actor
	// (including the root itself, trivially).
	RootPortal() (rpcwire.Portal, error)
	Nursery() Nursery
	Peers() PeerRegistry
}

// Nursery starts a long-lived task under the actor's single-threaded
// scheduler (spec §4.1 "publish the scope" / §5 scheduling model).
type Nursery interface {
	StartSoon(name string, fn func(ctx context.Context)) error
}

// PeerRegistry answers the one question the SIGINT shield needs: is there
// still a live channel to a given identity (spec §4.5 step 2)?
type PeerRegistry interface {
	Connected(id actorid.ID) bool
}
