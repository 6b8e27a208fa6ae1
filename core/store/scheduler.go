package store

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// scheduler runs middleware background tasks outside the dispatch queue,
// bounded by a semaphore. Tasks never block the queue; a panicking task is
// reported through onPanic and does not affect the store.
type scheduler struct {
	ctx      context.Context
	inflight atomic.Int32
	sem      chan struct{}
	wg       sync.WaitGroup

	storeID string
	metrics StoreMetrics
	onPanic OnPanic
}

func newScheduler(ctx context.Context, max int, storeID string, m StoreMetrics, onPanic OnPanic) *scheduler {
	var sem chan struct{}
	if max > 0 {
		sem = make(chan struct{}, max)
	}
	return &scheduler{
		ctx:     ctx,
		sem:     sem,
		storeID: storeID,
		metrics: m,
		onPanic: onPanic,
	}
}

// schedule starts f in its own goroutine and calls done once f returned. It
// reports false, calling done right away, if the store context is already
// done. A scheduled f always runs; it observes cancellation through its
// context.
func (s *scheduler) schedule(f, done func()) bool {
	select {
	case <-s.ctx.Done():
		done()
		return false
	default:
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer done()

		if s.sem != nil {
			s.sem <- struct{}{}
			defer func() { <-s.sem }()
		}

		s.metrics.TaskInflight(s.storeID, int(s.inflight.Add(1)))
		defer func() {
			s.metrics.TaskInflight(s.storeID, int(s.inflight.Add(-1)))
		}()

		s.run(f)
	}()
	return true
}

func (s *scheduler) run(f func()) {
	defer s.metrics.TaskDuration().ObserveDuration()
	defer func() {
		if r := recover(); r != nil {
			s.metrics.TaskCompleted(false)
			s.onPanic(r, debug.Stack(), nil)
		}
	}()

	f()
	s.metrics.TaskCompleted(true)
}

// wait blocks until every scheduled task returned.
func (s *scheduler) wait() { s.wg.Wait() }
