// Package actorsim is the concrete, in-process implementation of the
// actor-tree collaborators spec.md names only as external dependencies:
// actor spawning, the RPC transport, and the peer/discovery registry
// (SPEC_FULL.md §1, "Runnable surface"). It satisfies the
// [actoriface] traits so the core packages (debuglock, leaseserver,
// requester, sigintshield, replhook) never import it directly.
//
// One [inprocgrpc.Channel] per actor, each driven by its own
// [sched.Loop] goroutine, mirrors spec §5's "one OS thread per process"
// scheduling model closely enough for tests and the demo binary; a real
// multi-process deployment would swap this package for a TCP-backed
// transport without touching the core.
package actorsim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/go-inprocgrpc"

	"github.com/joeycumines/go-actorlock/actorid"
	"github.com/joeycumines/go-actorlock/actoriface"
	"github.com/joeycumines/go-actorlock/actorlog"
	"github.com/joeycumines/go-actorlock/internal/lockstate"
	"github.com/joeycumines/go-actorlock/internal/sched"
	"github.com/joeycumines/go-actorlock/leaseserver"
	"github.com/joeycumines/go-actorlock/rpcwire"
	"github.com/joeycumines/go-actorlock/sigintshield"
)

// Actor is one node of the simulated process tree: it owns a State, a
// SIGINT shield, a single-threaded dispatch loop, and an in-process gRPC
// channel through which it is reachable.
type Actor struct {
	id     actorid.ID
	tree   *Tree
	parent *Actor

	Loop    *sched.Loop
	Channel *inprocgrpc.Channel
	State   *lockstate.State
	Shield  *sigintshield.Shield

	log       actorlog.Logger
	debugMode bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	alive  atomic.Bool
}

var (
	_ actoriface.Runtime      = (*Actor)(nil)
	_ actoriface.ActorContext = (*Actor)(nil)
	_ actoriface.Nursery      = (*Actor)(nil)
)

// Identity implements [actoriface.ActorContext].
func (a *Actor) Identity() actorid.ID { return a.id }

// IsRoot implements [actoriface.ActorContext].
func (a *Actor) IsRoot() bool { return a.parent == nil }

// ParentPortal implements [actoriface.ActorContext]: live iff this actor
// has a parent and the tree still considers it connected.
func (a *Actor) ParentPortal() (rpcwire.Portal, bool) {
	if a.parent == nil || !a.tree.Connected(a.parent.id) {
		return rpcwire.Portal{}, false
	}
	return rpcwire.NewPortal(a.parent.Channel), true
}

// RootPortal implements [actoriface.ActorContext].
func (a *Actor) RootPortal() (rpcwire.Portal, error) {
	root := a.tree.Root()
	if root == nil {
		return rpcwire.Portal{}, errors.New("actorsim: tree has no root")
	}
	if !a.tree.Connected(root.id) {
		return rpcwire.Portal{}, fmt.Errorf("actorsim: root %s unreachable", root.id)
	}
	return rpcwire.NewPortal(root.Channel), nil
}

// Nursery implements [actoriface.ActorContext].
func (a *Actor) Nursery() actoriface.Nursery { return a }

// Peers implements [actoriface.ActorContext].
func (a *Actor) Peers() actoriface.PeerRegistry { return a.tree }

// Current implements [actoriface.Runtime]: every Actor is its own runtime
// handle.
func (a *Actor) Current() actoriface.ActorContext { return a }

// DebugMode implements [actoriface.Runtime].
func (a *Actor) DebugMode() bool { return a.debugMode }

// StartSoon implements [actoriface.Nursery]: runs fn on a fresh goroutine
// bound to the actor's lifetime context, tracked so Shutdown can wait for
// it.
func (a *Actor) StartSoon(name string, fn func(ctx context.Context)) error {
	if !a.alive.Load() {
		return context.Canceled
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn(a.ctx)
	}()
	return nil
}

// run drives this actor's scheduler loop until Shutdown is called or ctx
// is cancelled.
func (a *Actor) run() {
	_ = a.Loop.Run(a.ctx)
}

// Shutdown tears the actor down: cancels any lease it holds on behalf of a
// child, stops the scheduler loop, cancels nursery tasks, and waits for
// them to return.
func (a *Actor) Shutdown() {
	if !a.alive.CompareAndSwap(true, false) {
		return
	}
	a.State.MarkShuttingDown()
	a.State.CancelLease()
	a.cancel()
	a.Loop.Stop()
	<-a.Loop.Done()
	a.wg.Wait()
}

// registerLeaseServer wires [leaseserver.Server] onto this actor's channel
// (root only), per SPEC_FULL.md §4.3a.
func (a *Actor) registerLeaseServer() {
	srv := &leaseserver.Server{State: a.State, Shield: a.Shield, Log: a.log}
	a.Channel.RegisterService(&rpcwire.ServiceDesc, srv)
}
