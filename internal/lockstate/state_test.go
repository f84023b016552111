package lockstate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-actorlock/actorid"
)

func TestNewStateInitialSnapshot(t *testing.T) {
	s := New()
	require.True(t, s.DrainEvent().IsSet())
	snap := s.Snapshot()
	require.False(t, snap.HasHolder)
}

func TestAcquireForRootThenRelease(t *testing.T) {
	s := New()
	id := actorid.NewInstance("root")
	s.AcquireForRoot(id, "task-a", "repl")

	snap := s.Snapshot()
	require.True(t, snap.HasHolder)
	require.Equal(t, id, snap.HolderUID)
	require.False(t, s.DrainEvent().IsSet())

	require.NoError(t, s.Release("task-a"))
	snap = s.Snapshot()
	require.False(t, snap.HasHolder)
	require.True(t, s.DrainEvent().IsSet())
}

func TestReleaseIsIdempotent(t *testing.T) {
	s := New()
	id := actorid.NewInstance("root")
	s.AcquireForRoot(id, "task-a", "repl")
	require.NoError(t, s.Release("task-a"))
	require.NoError(t, s.Release("task-a"))
	require.NoError(t, s.Release(""))
}

func TestReleaseWrongOwnerErrors(t *testing.T) {
	s := New()
	id := actorid.NewInstance("root")
	s.AcquireForRoot(id, "task-a", "repl")
	err := s.Release("task-b")
	require.ErrorIs(t, err, ErrLockCorrupted)
}

func TestAcquireForLeaseRecordsCancel(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := actorid.NewInstance("child")

	leaseCtx, leaseCancel := context.WithCancel(ctx)
	s.AcquireForLease(leaseCtx, leaseCancel, sub)

	snap := s.Snapshot()
	require.True(t, snap.HasHolder)
	require.True(t, snap.HasLeaseCancel)
	require.Equal(t, sub, snap.HolderUID)

	canceled := make(chan struct{})
	go func() {
		<-leaseCtx.Done()
		close(canceled)
	}()
	s.CancelLease()
	<-canceled

	require.NoError(t, s.Release(""))
}

func TestSetRestoreSigintCalledOnRelease(t *testing.T) {
	s := New()
	var restored bool
	s.SetRestoreSigint(func() { restored = true })
	s.AcquireForRoot(actorid.NewInstance("root"), "task-a", nil)
	require.NoError(t, s.Release("task-a"))
	require.True(t, restored)
}

func TestReleaseLocalDoesNotTouchMutex(t *testing.T) {
	s := New()
	ev := s.PDBCompleteEvent()
	s.SetLocalTaskInDebug("child-task")
	require.NoError(t, s.ReleaseLocal("child-task"))
	require.Equal(t, "", s.LocalTaskInDebug())
	require.True(t, ev.IsSet())
}

func TestReleaseLocalWrongOwnerErrors(t *testing.T) {
	s := New()
	s.SetLocalTaskInDebug("child-task")
	err := s.ReleaseLocal("someone-else")
	require.ErrorIs(t, err, ErrLockCorrupted)
}

func TestMarkShuttingDown(t *testing.T) {
	s := New()
	require.False(t, s.IsShuttingDown())
	s.MarkShuttingDown()
	require.True(t, s.IsShuttingDown())
}

func TestBlocklist(t *testing.T) {
	s := New()
	id := actorid.NewInstance("blocked")
	require.False(t, s.IsBlocked(id))
	s.Block(id)
	require.True(t, s.IsBlocked(id))
}
