// Package xsync provides a pluggable goroutine-pool abstraction (Pool) used
// to run blocking retrieval and completion work off the editor thread, with
// a bounded, dynamically-retunable default backed by panjf2000/ants.
package xsync

import (
	"sync/atomic"

	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
	conc "github.com/sourcegraph/conc/pool"

	"github.com/inkforge/quillcore/pkg/safe"
)

// Pool executes functions concurrently, with whatever bound its backend enforces.
type Pool interface {
	Submit(f func()) error
}

var defaultPool atomic.Value

func init() {
	defaultPool.Store(PoolOfNoPool())
}

// DefaultPool returns the process-wide default Pool.
func DefaultPool() Pool { return defaultPool.Load().(Pool) }

// SetDefaultPool replaces the process-wide default Pool. A nil pool is ignored.
func SetDefaultPool(p Pool) {
	if p == nil {
		return
	}
	defaultPool.Store(p)
}

type poolAdapter func(f func()) error

func (p poolAdapter) Submit(f func()) error { return p(f) }

// PoolOfNoPool launches an unbounded goroutine per task, recovering panics.
// It is DefaultPool unless SetDefaultPool replaces it; CoreContext does not
// call SetDefaultPool and keeps its own bounded pool instead.
func PoolOfNoPool() Pool {
	return poolAdapter(func(f func()) error {
		safe.Go(f)
		return nil
	})
}

// PoolOfConc adapts a sourcegraph/conc pool.
func PoolOfConc(pool *conc.Pool) Pool {
	if pool == nil {
		panic("xsync: conc pool is nil")
	}
	return poolAdapter(func(f func()) error {
		pool.Go(f)
		return nil
	})
}

// PoolOfAnts adapts a panjf2000/ants pool.
func PoolOfAnts(pool *ants.Pool) Pool {
	if pool == nil {
		panic("xsync: ants pool is nil")
	}
	return poolAdapter(func(f func()) error {
		return pool.Submit(f)
	})
}

// PoolOfWorkerpool adapts a gammazero/workerpool.
func PoolOfWorkerpool(pool *workerpool.WorkerPool) Pool {
	if pool == nil {
		panic("xsync: workerpool is nil")
	}
	return poolAdapter(func(f func()) error {
		pool.Submit(f)
		return nil
	})
}

// Tunable is satisfied by pool backends that support live resizing, letting
// a caller retune capacity as the number of active surfaces changes instead
// of fixing it at construction (spec §5 "bounded parallelism ... equal to
// the number of active surfaces, minimum 2").
type Tunable interface {
	Tune(size int)
	Release()
}

// NewBoundedPool builds a Pool bounded to size workers, backed by
// panjf2000/ants: ants.WithNonblocking(true) makes Submit reject new work
// immediately once every worker is busy rather than queue it, which is what
// lets spec §5's "if the worker pool is saturated, new Completion Requests
// are dropped at launch time" actually happen instead of the caller
// blocking. Returns the Tunable handle alongside the Pool so a caller can
// retune or release the underlying ants.Pool.
func NewBoundedPool(size int) (Pool, Tunable, error) {
	if size < 2 {
		size = 2
	}
	p, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, nil, err
	}
	return PoolOfAnts(p), p, nil
}
