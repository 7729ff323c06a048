package xsync

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestNewBoundedPoolRejectsOnceSaturated exercises spec §5 backpressure: a
// pool bounded to 2 workers must reject a 3rd submission while both
// workers are still busy, rather than queue or block the caller.
func TestNewBoundedPoolRejectsOnceSaturated(t *testing.T) {
	pool, tuner, err := NewBoundedPool(2)
	require.NoError(t, err)
	defer tuner.Release()

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)

	for i := 0; i < 2; i++ {
		require.NoError(t, pool.Submit(func() {
			started.Done()
			<-release
		}))
	}
	started.Wait()

	err = pool.Submit(func() {})
	require.Error(t, err, "expected saturated bounded pool to reject a new submission")

	close(release)
}

// TestNewBoundedPoolTuneGrowsCapacity confirms a retuned pool accepts more
// concurrent work after Tune raises its size, mirroring how CoreContext
// grows the pool as surfaces open.
func TestNewBoundedPoolTuneGrowsCapacity(t *testing.T) {
	pool, tuner, err := NewBoundedPool(2)
	require.NoError(t, err)
	defer tuner.Release()

	tuner.Tune(3)

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, pool.Submit(func() {
			started.Done()
			<-release
		}))
	}

	done := make(chan struct{})
	go func() {
		started.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for all 3 tasks to start after Tune(3)")
	}

	close(release)
}

func TestNewBoundedPoolMinimumSizeIsTwo(t *testing.T) {
	pool, tuner, err := NewBoundedPool(0)
	require.NoError(t, err)
	defer tuner.Release()

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)
	for i := 0; i < 2; i++ {
		require.NoError(t, pool.Submit(func() {
			started.Done()
			<-release
		}))
	}
	started.Wait()
	close(release)
}
