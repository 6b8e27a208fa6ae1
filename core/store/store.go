package store

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/flux-go/core/reflector"
)

type (
	// OnPanic receives programming errors raised by reducers, middleware and
	// background tasks. action is nil for task panics.
	OnPanic func(recovered any, stack []byte, action any)

	// Options configures a Store. Zero values select defaults.
	Options[S, A any] struct {
		// ID names the store in logs and metrics. Defaults to "store-<random>".
		ID string
		// Context bounds the store lifetime; the store closes when it is done.
		Context context.Context
		Logger  *slog.Logger
		// Middleware is the ordered chain every action passes before the reducer.
		Middleware []Middleware[S, A]
		Metrics    StoreMetrics
		OnPanic    OnPanic
		// MaxPending bounds the queue for DispatchContext callers, which
		// suspend while MaxPending actions are waiting. Dispatch is never
		// suspended. Zero means unbounded.
		MaxPending int
		// MaxConcurrentTasks caps background tasks started via
		// MiddlewareContext.Go. Defaults to 32; negative means unlimited.
		MaxConcurrentTasks int
	}
)

type snapshot[S any] struct {
	state   S
	version uint64
}

type entry[A any] struct {
	action A
	handle *Handle
}

// Store holds the state of a feature, applies actions in order through the
// middleware chain and the reducer, and notifies subscriptions of every
// committed state.
type Store[S, A any] struct {
	id  string
	log *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	reducer    Reducer[S, A]
	middleware []Middleware[S, A]
	metrics    StoreMetrics
	onPanic    OnPanic
	maxPending int

	snap     atomic.Pointer[snapshot[S]]
	queue    *queue[entry[A]]
	registry *registry[S]
	sched    *scheduler

	mu      sync.Mutex
	closed  bool
	err     error
	pending int
	idle    broadcast
	space   broadcast

	stop chan struct{}
	done chan struct{}
}

// New creates a Store with the given initial state and starts its dispatch
// queue. The middleware chain and reducer are fixed for the store lifetime.
func New[S, A any](initial S, reducer Reducer[S, A], opt Options[S, A]) *Store[S, A] {
	if reducer == nil {
		panic("store: reducer is required")
	}
	if opt.ID == "" {
		opt.ID = "store-" + gonanoid.Must(6)
	}
	if opt.Context == nil {
		opt.Context = context.Background()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Metrics == nil {
		opt.Metrics = NopStoreMetrics()
	}
	if opt.MaxConcurrentTasks == 0 {
		opt.MaxConcurrentTasks = 32
	}

	log := opt.Logger.With(slog.String("store", opt.ID))
	if opt.OnPanic == nil {
		opt.OnPanic = func(recovered any, stack []byte, action any) {
			log.Error(
				"store panicked",
				slog.Any("recovered", recovered),
				slog.String("stack", string(stack)),
				slog.String("action_type", ActionType(action)),
			)
		}
	}

	ctx, cancel := context.WithCancel(opt.Context)

	s := &Store[S, A]{
		id:         opt.ID,
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		reducer:    reducer,
		middleware: append([]Middleware[S, A](nil), opt.Middleware...),
		metrics:    opt.Metrics,
		onPanic:    opt.OnPanic,
		maxPending: opt.MaxPending,
		queue:      newQueue[entry[A]](),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	s.snap.Store(&snapshot[S]{state: initial})
	s.registry = newRegistry(s.snap.Load, func(n int) { s.metrics.Subscribers(s.id, n) })
	s.sched = newScheduler(ctx, opt.MaxConcurrentTasks, s.id, s.metrics, s.onPanic)

	s.log.Debug("store created", slog.Int("middleware", len(s.middleware)))

	go s.loop()
	return s
}

// ID returns the store identifier.
func (s *Store[S, A]) ID() string { return s.id }

// State returns the latest committed state.
func (s *Store[S, A]) State() S { return s.snap.Load().state }

// Version returns the number of commits so far; the initial state is version 0.
func (s *Store[S, A]) Version() uint64 { return s.snap.Load().version }

// Snapshot returns the latest committed state together with its version.
func (s *Store[S, A]) Snapshot() (S, uint64) {
	snap := s.snap.Load()
	return snap.state, snap.version
}

// Done is closed once the dispatch queue stopped.
func (s *Store[S, A]) Done() <-chan struct{} { return s.done }

// Err returns the failure that made the store unusable, if any.
func (s *Store[S, A]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Dispatch enqueues action and returns immediately. The returned handle
// completes once the action was reduced, dropped, cancelled or rejected.
func (s *Store[S, A]) Dispatch(action A) *Handle {
	return s.enqueue(action, nil)
}

// DispatchContext is like Dispatch but suspends the caller while the queue
// holds Options.MaxPending actions, until room is available or ctx is done.
func (s *Store[S, A]) DispatchContext(ctx context.Context, action A) (*Handle, error) {
	if s.maxPending <= 0 {
		return s.Dispatch(action), nil
	}
	for {
		s.mu.Lock()
		if s.closed || s.pending < s.maxPending {
			h := s.enqueueLocked(action)
			s.mu.Unlock()
			return h, h.Err()
		}
		room := s.space.wait()
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("dispatch failed: %w", ctx.Err())
		case <-room:
		}
	}
}

// WaitUntilIdle blocks until every queued action, including follow-ups
// dispatched while draining, has been processed. Intended for tests.
func (s *Store[S, A]) WaitUntilIdle(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.pending == 0 {
			err := s.err
			s.mu.Unlock()
			return err
		}
		idle := s.idle.wait()
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}
	}
}

// Close stops the dispatch queue. Actions still queued complete with
// ErrStoreClosed, background tasks are cancelled and awaited. Close must not
// be called from middleware, reducers or observers.
func (s *Store[S, A]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		s.sched.wait()
		return
	}
	s.closed = true
	close(s.stop)
	s.mu.Unlock()

	<-s.done
	s.cancel()
	s.sched.wait()
	s.log.Debug("store closed")
}

// ActionType names the dynamic type of an action for logs and metric labels.
func ActionType(action any) string {
	if action == nil {
		return "<nil>"
	}
	return reflector.TypeInfoOf(action).Short
}

// ---- internals ----

func (s *Store[S, A]) enqueue(action A, origin *Handle) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if origin != nil && origin.isCancelled() {
		return completedHandle(OutcomeCancelled, ErrCancelled)
	}
	return s.enqueueLocked(action)
}

func (s *Store[S, A]) enqueueLocked(action A) *Handle {
	if s.err != nil {
		return completedHandle(OutcomeRejected, s.err)
	}
	if s.closed {
		return completedHandle(OutcomeRejected, ErrStoreClosed)
	}

	h := newHandle(s.ctx, &s.mu)
	s.pending++
	s.queue.push(entry[A]{action: action, handle: h})
	s.metrics.QueueDepth(s.id, s.pending)
	return h
}

// settle accounts for a finished entry and wakes idle and space waiters.
func (s *Store[S, A]) settle() {
	s.mu.Lock()
	s.pending--
	depth := s.pending
	if depth == 0 {
		s.idle.notify()
	}
	s.space.notify()
	s.mu.Unlock()
	s.metrics.QueueDepth(s.id, depth)
}

func (s *Store[S, A]) loop() {
	defer close(s.done)
	defer s.drain()

	for {
		select {
		case <-s.stop:
			return
		case <-s.ctx.Done():
			return
		case <-s.queue.ready:
		}

		for {
			select {
			case <-s.stop:
				return
			case <-s.ctx.Done():
				return
			default:
			}

			e, ok := s.queue.pop()
			if !ok {
				break
			}
			if !s.process(e) {
				return
			}
		}
	}
}

// drain rejects everything still queued once the loop stopped.
func (s *Store[S, A]) drain() {
	s.mu.Lock()
	s.closed = true
	err := s.err
	if err == nil {
		err = ErrStoreClosed
	}
	rest := s.queue.close()
	s.mu.Unlock()

	for _, e := range rest {
		e.handle.settle(OutcomeRejected, 0, err)
		e.handle.release()
		s.settle()
	}
}

// process runs one action through the chain. It reports false if the store
// failed and the loop must stop.
func (s *Store[S, A]) process(e entry[A]) (ok bool) {
	h := e.handle
	mt := ActionType(e.action)

	if h.phase.Load() == phaseCancelled {
		s.complete(h, mt, OutcomeCancelled, 0, ErrCancelled)
		return true
	}

	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			err := fmt.Errorf("%w: panic while processing %s: %v", ErrStoreFailed, mt, r)

			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			// tasks and task dispatch stop with the failed store
			s.cancel()

			s.metrics.ActionPanic(mt)
			s.onPanic(r, stack, e.action)
			s.complete(h, mt, OutcomeFailed, 0, err)
			ok = false
		}
	}()

	timer := s.metrics.ActionDuration(mt)
	version := s.run(&actionCtx[S, A]{h: h, store: s, log: s.log}, e.action)
	timer.ObserveDuration()

	switch {
	case version > 0:
		s.complete(h, mt, OutcomeCommitted, version, nil)
	default:
		s.complete(h, mt, OutcomeDropped, 0, nil)
	}
	return true
}

func (s *Store[S, A]) complete(h *Handle, mt string, o Outcome, version uint64, err error) {
	h.settle(o, version, err)
	h.release()
	s.metrics.ActionProcessed(mt, h.Outcome())
	s.settle()
}

// run passes action through the middleware chain and returns the committed
// version, or zero if the reducer did not run.
func (s *Store[S, A]) run(ac *actionCtx[S, A], action A) (committed uint64) {
	var sealed atomic.Bool
	defer sealed.Store(true)

	var step func(i int, a A)
	step = func(i int, a A) {
		if i == len(s.middleware) {
			committed = s.reduce(ac.h, a)
			return
		}

		var called atomic.Bool
		next := func(na A) {
			if sealed.Load() {
				s.log.Error("next called after middleware returned", slog.Int("middleware", i), slog.String("action_type", ActionType(na)))
				return
			}
			if !called.CompareAndSwap(false, true) {
				s.log.Error("next called more than once", slog.Int("middleware", i), slog.String("action_type", ActionType(na)))
				return
			}
			step(i+1, na)
		}
		s.middleware[i].Invoke(ac, next, a)
	}

	step(0, action)
	return committed
}

// reduce applies the reducer, commits the new snapshot and notifies the
// registry. Returns zero if the handle was cancelled first.
func (s *Store[S, A]) reduce(h *Handle, action A) uint64 {
	if !h.beginReduce() {
		return 0
	}
	cur := s.snap.Load()
	next := &snapshot[S]{
		state:   s.reducer(cur.state, action),
		version: cur.version + 1,
	}
	s.snap.Store(next)
	s.registry.notify(next)
	return next.version
}
