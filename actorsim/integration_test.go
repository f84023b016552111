package actorsim_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-actorlock/actoriface"
	"github.com/joeycumines/go-actorlock/actorsim"
	"github.com/joeycumines/go-actorlock/debuglock"
	"github.com/joeycumines/go-actorlock/requester"
)

// TestChildAcquiresAndReleases covers spec.md §8's baseline property: a
// single child's breakpoint grants the lock, runs its REPL, and releases,
// leaving drain-event set and holder-uid null.
func TestChildAcquiresAndReleases(t *testing.T) {
	tree := actorsim.NewTree(nil)
	root := tree.SpawnRoot("root", true)
	defer tree.ShutdownAll()

	child := tree.Spawn(root, "child-a", true)

	err := debuglock.Enter(context.Background(), child, child.State, child.Shield, nil, "task-1", func(actor actoriface.ActorContext, repl any) error {
		_, ok := repl.(*requester.Session)
		require.True(t, ok)
		return child.State.ReleaseLocal("task-1")
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return root.State.DrainEvent().IsSet()
	}, time.Second, time.Millisecond)

	snap := root.State.Snapshot()
	require.False(t, snap.HasHolder)
}

// TestTwoChildrenSessionsDoNotOverlap covers a sequential form of spec.md
// §8 scenario 1: the second child's "started" arrival happens strictly
// after the first child's release. The two Enter calls run one after the
// other, so the root's FIFO wait queue is not exercised here.
func TestTwoChildrenSessionsDoNotOverlap(t *testing.T) {
	tree := actorsim.NewTree(nil)
	root := tree.SpawnRoot("root", true)
	defer tree.ShutdownAll()

	a := tree.Spawn(root, "child-a", true)
	b := tree.Spawn(root, "child-b", true)

	var order []string
	release := func(actor *actorsim.Actor, name string) debuglock.DebugFunc {
		return func(actoriface.ActorContext, any) error {
			order = append(order, name+":locked")
			err := actor.State.ReleaseLocal(name)
			order = append(order, name+":released")
			return err
		}
	}

	errA := debuglock.Enter(context.Background(), a, a.State, a.Shield, nil, "a-task", release(a, "a-task"))
	require.NoError(t, errA)

	errB := debuglock.Enter(context.Background(), b, b.State, b.Shield, nil, "b-task", release(b, "b-task"))
	require.NoError(t, errB)

	require.Equal(t, []string{"a-task:locked", "a-task:released", "b-task:locked", "b-task:released"}, order)

	require.Eventually(t, func() bool {
		return root.State.DrainEvent().IsSet()
	}, time.Second, time.Millisecond)
}

// TestBlockedIdentity covers spec.md §8 scenario 6.
func TestBlockedIdentity(t *testing.T) {
	tree := actorsim.NewTree(nil)
	root := tree.SpawnRoot("root", true)
	defer tree.ShutdownAll()

	c := tree.Spawn(root, "child-blocked", true)
	root.State.Block(c.Identity())

	err := debuglock.Enter(context.Background(), c, c.State, c.Shield, nil, "blocked-task", func(actoriface.ActorContext, any) error {
		t.Fatal("debug_func must not run for a blocked identity")
		return nil
	})
	require.ErrorIs(t, err, requester.ErrBlocked)

	snap := root.State.Snapshot()
	require.False(t, snap.HasHolder)
}

// TestRootShuttingDownSuppressesLeaseStart covers spec.md §9 Open Questions
// item 2: a lease request arriving while the root is mid-cancellation is
// swallowed (the child observes the session close without "Locked"),
// without the holder ever being recorded.
func TestRootShuttingDownSuppressesLeaseStart(t *testing.T) {
	tree := actorsim.NewTree(nil)
	root := tree.SpawnRoot("root", true)
	defer tree.ShutdownAll()

	c := tree.Spawn(root, "child-c", true)
	root.State.MarkShuttingDown()

	err := debuglock.Enter(context.Background(), c, c.State, c.Shield, nil, "task-c", func(actoriface.ActorContext, any) error {
		t.Fatal("debug_func must not run once the root is shutting down")
		return nil
	})
	require.Error(t, err)

	snap := root.State.Snapshot()
	require.False(t, snap.HasHolder)
}
