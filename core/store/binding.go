package store

import (
	"context"
	"sync"
)

// Binding connects a store to a long-running consumer, such as a view
// controller, between Start and Stop.
type Binding[S, A any] struct {
	store   *Store[S, A]
	onState func(ctx context.Context, states <-chan S)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBinding creates a stopped binding. Once started, onState runs in its own
// goroutine and receives every distinct state until the binding is stopped.
func NewBinding[S, A any](s *Store[S, A], onState func(ctx context.Context, states <-chan S)) *Binding[S, A] {
	return &Binding[S, A]{store: s, onState: onState}
}

// Start begins observing the store. Starting a running binding is a no-op.
func (b *Binding[S, A]) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(b.store.ctx)
	done := make(chan struct{})
	b.cancel, b.done = cancel, done

	states := Flow(ctx, b.store, func(state S) S { return state })
	go func() {
		defer close(done)
		b.onState(ctx, states)
	}()
}

// Stop cancels the observation and waits for onState to return.
func (b *Binding[S, A]) Stop() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
