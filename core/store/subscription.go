package store

import (
	"reflect"
	"sync"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Subscription is a registered observer of a Store. It is cancelled with
// Unsubscribe or automatically when its Scope ends.
type Subscription struct {
	id    string
	scope Scope

	// mu serializes deliveries to the observer
	mu sync.Mutex

	closed   atomic.Bool
	closedCh chan struct{}
	once     sync.Once
	remove   func()
}

// ID returns the subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Unsubscribe stops further deliveries: no state committed after Unsubscribe
// returned is delivered. A delivery of an earlier commit that is already
// running, or has already passed its check, may still complete. Unsubscribe
// is idempotent and may be called from within the observer itself.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.closedCh)
		if s.remove != nil {
			s.remove()
		}
	})
}

// Done is closed once the subscription is cancelled.
func (s *Subscription) Done() <-chan struct{} { return s.closedCh }

// Active reports whether the subscription still receives updates.
func (s *Subscription) Active() bool { return !s.ended() }

func (s *Subscription) ended() bool {
	return s.closed.Load() || scopeEnded(s.scope)
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeOpts)

type subscribeOpts struct {
	scope Scope
}

// WithScope binds the subscription to scope: once the scope ends the
// observer is never invoked again and the subscription is removed.
func WithScope(scope Scope) SubscribeOption {
	return func(o *subscribeOpts) { o.scope = scope }
}

// Subscribe registers observer for every committed state that differs
// structurally from the last one delivered. The observer is invoked once
// immediately with the current state.
func (s *Store[S, A]) Subscribe(observer func(S), opts ...SubscribeOption) *Subscription {
	return SelectFunc(s, func(state S) S { return state }, changedDeep[S], observer, opts...)
}

// Select registers observer for the value derived by selector. The observer
// is invoked once immediately and then whenever the selected value changes
// structurally.
func Select[S, A, T any](s *Store[S, A], selector func(S) T, observer func(T), opts ...SubscribeOption) *Subscription {
	return SelectFunc(s, selector, changedDeep[T], observer, opts...)
}

// SelectFunc is like Select with a custom change detector; changed reports
// whether next must be delivered given the previously delivered value.
func SelectFunc[S, A, T any](
	s *Store[S, A],
	selector func(S) T,
	changed func(prev, next T) bool,
	observer func(T),
	opts ...SubscribeOption,
) *Subscription {
	o := subscribeOpts{}
	for _, opt := range opts {
		opt(&o)
	}

	sub := &Subscription{
		id:       "sub-" + gonanoid.Must(8),
		scope:    o.scope,
		closedCh: make(chan struct{}),
	}

	var (
		last        T
		lastVersion uint64
	)

	// deliver runs with sub.mu held
	deliver := func(snap *snapshot[S]) {
		if snap.version <= lastVersion {
			return
		}
		lastVersion = snap.version
		v := selector(snap.state)
		if !changed(last, v) {
			return
		}
		last = v
		if sub.ended() {
			return
		}
		observer(v)
	}

	func() {
		// an observer panicking on the initial delivery leaves no registration behind
		initialized := false
		defer func() {
			if !initialized {
				sub.Unsubscribe()
			}
		}()

		sub.mu.Lock()
		defer sub.mu.Unlock()

		snap := s.registry.add(sub, deliver)
		lastVersion = snap.version
		last = selector(snap.state)
		if !sub.ended() {
			observer(last)
		}
		initialized = true
	}()

	if o.scope != nil && o.scope.Done() != nil {
		go func() {
			select {
			case <-o.scope.Done():
				sub.Unsubscribe()
			case <-sub.closedCh:
			}
		}()
	}

	return sub
}

func changedDeep[T any](prev, next T) bool {
	return !reflect.DeepEqual(prev, next)
}

// ---- registry ----

type registration[S any] struct {
	sub     *Subscription
	deliver func(*snapshot[S])
}

// registry holds the subscriptions of one store. The registration list is
// copy-on-write so the dispatch queue reads it without locking.
type registry[S any] struct {
	mu      sync.Mutex
	entries atomic.Pointer[[]registration[S]]

	// current returns the latest committed snapshot
	current func() *snapshot[S]
	onCount func(int)
}

func newRegistry[S any](current func() *snapshot[S], onCount func(int)) *registry[S] {
	r := &registry[S]{current: current, onCount: onCount}
	r.entries.Store(&[]registration[S]{})
	return r
}

// add registers sub and returns the snapshot its baseline is taken from.
// The list is published before the snapshot is read, so any commit the
// baseline does not include is delivered to sub by notify.
func (r *registry[S]) add(sub *Subscription, deliver func(*snapshot[S])) *snapshot[S] {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.entries.Load()
	next := make([]registration[S], len(old), len(old)+1)
	copy(next, old)
	next = append(next, registration[S]{sub: sub, deliver: deliver})
	r.entries.Store(&next)
	sub.remove = func() { r.removeSub(sub) }
	r.onCount(len(next))

	return r.current()
}

func (r *registry[S]) removeSub(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.entries.Load()
	next := make([]registration[S], 0, len(old))
	for _, e := range old {
		if e.sub != sub {
			next = append(next, e)
		}
	}
	r.entries.Store(&next)
	r.onCount(len(next))
}

// notify delivers snap to every active subscription. It runs on the
// dispatch queue only.
func (r *registry[S]) notify(snap *snapshot[S]) {
	for _, e := range *r.entries.Load() {
		if e.sub.ended() {
			continue
		}
		func() {
			e.sub.mu.Lock()
			defer e.sub.mu.Unlock()
			if !e.sub.ended() {
				e.deliver(snap)
			}
		}()
	}
}

func (r *registry[S]) count() int {
	return len(*r.entries.Load())
}
