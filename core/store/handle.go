package store

import (
	"context"
	"sync"
	"sync/atomic"
)

// Outcome describes how a dispatched action left the pipeline.
type Outcome int32

const (
	// OutcomePending means the action has not finished the pipeline yet.
	OutcomePending Outcome = iota
	// OutcomeCommitted means the reducer ran and a new state was committed.
	OutcomeCommitted
	// OutcomeDropped means no middleware called next, so the reducer never ran.
	OutcomeDropped
	// OutcomeCancelled means the handle was cancelled before reduction.
	OutcomeCancelled
	// OutcomeFailed means a reducer or middleware panicked while processing the action.
	OutcomeFailed
	// OutcomeRejected means the store was closed or failed when the action arrived.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeCommitted:
		return "committed"
	case OutcomeDropped:
		return "dropped"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

const (
	phaseQueued int32 = iota
	phaseReducing
	phaseCancelled
	phaseDone
)

// Handle tracks a single dispatched action until it has traversed the
// middleware chain and the reducer (or was dropped, cancelled or rejected).
type Handle struct {
	done chan struct{}
	once sync.Once

	phase           atomic.Int32
	cancelRequested atomic.Bool

	// guard serializes Cancel against follow-up dispatches of tasks spawned
	// for this action.
	guard *sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	refs   atomic.Int32

	// written once before done is closed
	outcome Outcome
	version uint64
	err     error
}

func newHandle(parent context.Context, guard *sync.Mutex) *Handle {
	ctx, cancel := context.WithCancel(parent)
	h := &Handle{
		done:   make(chan struct{}),
		guard:  guard,
		ctx:    ctx,
		cancel: cancel,
	}
	h.refs.Store(1)
	return h
}

func completedHandle(o Outcome, err error) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := &Handle{done: make(chan struct{}), ctx: ctx, cancel: cancel}
	h.phase.Store(phaseDone)
	h.finish(o, 0, err)
	return h
}

// Done is closed once the action finished processing.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the action finished processing or ctx is done. It returns
// nil for committed and dropped actions.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return h.err
	}
}

// Join blocks until the action finished processing and returns its outcome.
func (h *Handle) Join() Outcome {
	<-h.done
	return h.outcome
}

// Outcome returns the outcome, or OutcomePending while the action is in flight.
func (h *Handle) Outcome() Outcome {
	select {
	case <-h.done:
		return h.outcome
	default:
		return OutcomePending
	}
}

// Err returns the error the action completed with, if any.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Version returns the state version committed by this action. It is zero
// unless the outcome is OutcomeCommitted.
func (h *Handle) Version() uint64 {
	select {
	case <-h.done:
		return h.version
	default:
		return 0
	}
}

// Cancel requests cancellation. It reports whether the state transition was
// prevented: once the reducer has started it returns false. In both cases
// background tasks started by middleware for this action see their context
// cancelled and can no longer dispatch follow-up actions.
func (h *Handle) Cancel() bool {
	if h.guard != nil {
		h.guard.Lock()
		defer h.guard.Unlock()
	}
	h.cancelRequested.Store(true)
	h.cancel()
	return h.phase.CompareAndSwap(phaseQueued, phaseCancelled)
}

func (h *Handle) isCancelled() bool { return h.cancelRequested.Load() }

// beginReduce moves the handle into the reducing phase unless it was cancelled.
func (h *Handle) beginReduce() bool {
	return h.phase.CompareAndSwap(phaseQueued, phaseReducing)
}

// settle marks the handle done and completes it. A dropped action whose
// handle was cancelled while in the chain is reported as cancelled.
func (h *Handle) settle(o Outcome, version uint64, err error) {
	if prev := h.phase.Swap(phaseDone); prev == phaseCancelled && o == OutcomeDropped {
		o, err = OutcomeCancelled, ErrCancelled
	}
	h.finish(o, version, err)
}

func (h *Handle) finish(o Outcome, version uint64, err error) {
	h.once.Do(func() {
		h.outcome = o
		h.version = version
		h.err = err
		close(h.done)
	})
}

func (h *Handle) retain() { h.refs.Add(1) }

// release drops a reference; the action context is cancelled once processing
// and all tasks started for the action are finished.
func (h *Handle) release() {
	if h.refs.Add(-1) == 0 {
		h.cancel()
	}
}
