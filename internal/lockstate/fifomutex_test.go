package lockstate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFifoMutexGrantsInArrivalOrder(t *testing.T) {
	var m fifoMutex
	m.Lock() // held by "main"

	const n = 5
	order := make([]int, 0, n)
	var mu sync.Mutex
	var wg sync.WaitGroup

	// Each goroutine queues strictly after the previous one has reached
	// queueLen() == its index, so arrival order is deterministic.
	for i := 0; i < n; i++ {
		require.Eventually(t, func() bool { return m.queueLen() == i }, time.Second, time.Millisecond)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Lock()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			m.Unlock()
		}(i)
		require.Eventually(t, func() bool { return m.queueLen() == i+1 }, time.Second, time.Millisecond)
	}

	m.Unlock() // release "main", queue drains in FIFO order

	wg.Wait()
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFifoMutexUnlockOfUnheldPanics(t *testing.T) {
	var m fifoMutex
	require.Panics(t, func() { m.Unlock() })
}

func TestFifoMutexQueueLen(t *testing.T) {
	var m fifoMutex
	m.Lock()
	require.Equal(t, 0, m.queueLen())

	done := make(chan struct{})
	go func() {
		m.Lock()
		close(done)
	}()
	require.Eventually(t, func() bool { return m.queueLen() == 1 }, time.Second, time.Millisecond)

	m.Unlock()
	<-done
	m.Unlock()
}
