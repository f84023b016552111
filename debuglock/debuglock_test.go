package debuglock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-actorlock/actorid"
	"github.com/joeycumines/go-actorlock/actoriface"
	"github.com/joeycumines/go-actorlock/actorsim"
	"github.com/joeycumines/go-actorlock/debuglock"
	"github.com/joeycumines/go-actorlock/replhook"
)

func TestAcquireDebugLockRejectsMismatchedIdentity(t *testing.T) {
	tree := actorsim.NewTree(nil)
	root := tree.SpawnRoot("root", true)
	defer tree.ShutdownAll()

	other := actorid.NewInstance("not-root")
	err := debuglock.AcquireDebugLock(context.Background(), root, root.State, root.Shield, nil, other, "task-x", func(actoriface.ActorContext) error {
		t.Fatal("block must not run when subactor_uid does not match the current actor")
		return nil
	})
	require.Error(t, err)

	snap := root.State.Snapshot()
	require.False(t, snap.HasHolder)
}

func TestAcquireDebugLockHoldsAcrossBlockWithoutREPL(t *testing.T) {
	tree := actorsim.NewTree(nil)
	root := tree.SpawnRoot("root", true)
	defer tree.ShutdownAll()

	var sawHolder bool
	err := debuglock.AcquireDebugLock(context.Background(), root, root.State, root.Shield, nil, root.Identity(), "task-x", func(actor actoriface.ActorContext) error {
		snap := root.State.Snapshot()
		sawHolder = snap.HasHolder && snap.HolderUID == actor.Identity()
		return nil
	})
	require.NoError(t, err)
	require.True(t, sawHolder)

	snap := root.State.Snapshot()
	require.False(t, snap.HasHolder)
}

func TestPostMortemInvokesExceptionInspectionEntryOnRoot(t *testing.T) {
	tree := actorsim.NewTree(nil)
	root := tree.SpawnRoot("root", true)
	defer tree.ShutdownAll()

	var gotREPL *replhook.REPL
	err := debuglock.PostMortem(context.Background(), root, root.State, root.Shield, nil, "task-x", func(actor actoriface.ActorContext, repl *replhook.REPL) error {
		gotREPL = repl
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, gotREPL)

	snap := root.State.Snapshot()
	require.False(t, snap.HasHolder)
}
