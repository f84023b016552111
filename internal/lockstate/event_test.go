package lockstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventSetIdempotent(t *testing.T) {
	e := NewEvent()
	require.False(t, e.IsSet())
	e.Set()
	e.Set()
	require.True(t, e.IsSet())
}

func TestEventNewSetEvent(t *testing.T) {
	e := NewSetEvent()
	require.True(t, e.IsSet())
}

func TestEventWaitBlocksUntilSet(t *testing.T) {
	e := NewEvent()
	done := make(chan struct{})
	go func() {
		defer close(done)
		require.NoError(t, e.Wait(context.Background()))
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Set")
	case <-time.After(20 * time.Millisecond):
	}

	e.Set()
	<-done
}

func TestEventWaitRespectsContext(t *testing.T) {
	e := NewEvent()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := e.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
