package sched

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopRunsSubmittedTasksInOrder(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go l.Run(ctx)

	var got []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, l.Submit(func() {
			got = append(got, i)
			if i == 4 {
				close(done)
			}
		}))
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for submitted tasks")
	}
	require.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestSubmitInternalRunsAheadOfExternal(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// queue every task before Run starts, with a blocking external task at
	// the head of the external queue; the internal task still runs first.
	release := make(chan struct{})
	require.NoError(t, l.Submit(func() { <-release }))

	var order []string
	done := make(chan struct{})
	require.NoError(t, l.Submit(func() {
		order = append(order, "external")
		close(done)
	}))
	require.NoError(t, l.SubmitInternal(func() {
		order = append(order, "internal")
	}))

	go l.Run(ctx)
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
	require.Equal(t, []string{"internal", "external"}, order)
}

func TestStopPreventsFurtherSubmit(t *testing.T) {
	l := New()
	l.Stop()
	err := l.Submit(func() {})
	require.ErrorIs(t, err, ErrLoopStopped)
	err = l.SubmitInternal(func() {})
	require.ErrorIs(t, err, ErrLoopStopped)
}

func TestRunReturnsOnStop(t *testing.T) {
	l := New()
	ctx := context.Background()
	go func() {
		require.NoError(t, l.Run(ctx))
	}()
	l.Stop()
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestRunReturnsContextError(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
