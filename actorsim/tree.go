package actorsim

import (
	"context"
	"fmt"
	"sync"

	"github.com/joeycumines/go-inprocgrpc"

	"github.com/joeycumines/go-actorlock/actorid"
	"github.com/joeycumines/go-actorlock/actoriface"
	"github.com/joeycumines/go-actorlock/actorlog"
	"github.com/joeycumines/go-actorlock/internal/lockstate"
	"github.com/joeycumines/go-actorlock/internal/sched"
	"github.com/joeycumines/go-actorlock/sigintshield"
)

// Tree owns every [Actor] spawned for one simulated run and doubles as the
// tree-wide [actoriface.PeerRegistry]: "connected" here means "not yet
// disconnected via Tree.Disconnect", which tests use to simulate a child
// process crashing (spec §8 scenario 2) or a SIGINT arriving when the
// recorded holder has vanished (scenario 4).
type Tree struct {
	mu        sync.Mutex
	actors    map[actorid.ID]*Actor
	connected map[actorid.ID]bool
	root      *Actor
	log       actorlog.Logger
}

var _ actoriface.PeerRegistry = (*Tree)(nil)

// NewTree creates an empty Tree. log may be nil (discards everything).
func NewTree(log actorlog.Logger) *Tree {
	if log == nil {
		log = actorlog.Nop
	}
	return &Tree{
		actors:    make(map[actorid.ID]*Actor),
		connected: make(map[actorid.ID]bool),
		log:       log,
	}
}

// Connected implements [actoriface.PeerRegistry].
func (t *Tree) Connected(id actorid.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected[id]
}

// Root returns the tree's root actor, or nil if none has been spawned yet.
func (t *Tree) Root() *Actor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root
}

// SpawnRoot creates the tree's root actor.
func (t *Tree) SpawnRoot(name string, debugMode bool) *Actor {
	a := t.newActor(name, nil, debugMode)
	t.mu.Lock()
	t.root = a
	t.mu.Unlock()
	a.registerLeaseServer()
	return a
}

// Spawn creates a child of parent.
func (t *Tree) Spawn(parent *Actor, name string, debugMode bool) *Actor {
	return t.newActor(name, parent, debugMode)
}

func (t *Tree) newActor(name string, parent *Actor, debugMode bool) *Actor {
	id := actorid.NewInstance(name)
	ctx, cancel := context.WithCancel(context.Background())

	loop := sched.New()
	a := &Actor{
		id:        id,
		tree:      t,
		parent:    parent,
		Loop:      loop,
		Channel:   inprocgrpc.NewChannel(inprocgrpc.WithLoop(loop)),
		State:     lockstate.New(),
		log:       t.log,
		debugMode: debugMode,
		ctx:       ctx,
		cancel:    cancel,
	}
	a.alive.Store(true)
	a.Shield = &sigintshield.Shield{
		Runtime: a,
		Log:     a.log,
		DoCancel: func(force bool) {
			a.cancel()
			if force {
				a.Loop.Stop()
			}
		},
	}

	t.mu.Lock()
	t.actors[id] = a
	t.connected[id] = true
	t.mu.Unlock()

	go a.run()

	return a
}

// Disconnect marks id as unreachable, simulating a crashed or killed
// process (spec §8 scenarios 2 and 4). Subsequent Connected(id) and
// ParentPortal/RootPortal calls observe the loss.
func (t *Tree) Disconnect(id actorid.ID) {
	t.mu.Lock()
	t.connected[id] = false
	t.mu.Unlock()
}

// Lookup returns the actor for id, if still known to the tree.
func (t *Tree) Lookup(id actorid.ID) (*Actor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.actors[id]
	return a, ok
}

// Kill simulates the OS process for id dying: it disconnects the actor
// from the tree and shuts down its scheduler loop and nursery tasks.
func (t *Tree) Kill(id actorid.ID) error {
	a, ok := t.Lookup(id)
	if !ok {
		return fmt.Errorf("actorsim: unknown actor %s", id)
	}
	t.Disconnect(id)
	a.Shutdown()
	return nil
}

// ShutdownAll tears down every actor in the tree, root last.
func (t *Tree) ShutdownAll() {
	t.mu.Lock()
	actors := make([]*Actor, 0, len(t.actors))
	for _, a := range t.actors {
		if a != t.root {
			actors = append(actors, a)
		}
	}
	root := t.root
	t.mu.Unlock()

	for _, a := range actors {
		a.Shutdown()
	}
	if root != nil {
		root.Shutdown()
	}
}
