package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testState struct {
	Counter int
	Other   int
}

type testAction interface{ isTestAction() }

type (
	incrementAction      struct{}
	incrementByAction    struct{ By int }
	setValueAction       struct{ Value int }
	incrementOtherAction struct{}
	// blockAction holds the dispatch queue until gate is closed
	blockAction struct{ gate chan struct{} }
)

func (incrementAction) isTestAction()      {}
func (incrementByAction) isTestAction()    {}
func (setValueAction) isTestAction()       {}
func (incrementOtherAction) isTestAction() {}
func (blockAction) isTestAction()          {}

func testReducer(s testState, a testAction) testState {
	switch a := a.(type) {
	case incrementAction:
		s.Counter++
	case incrementByAction:
		s.Counter += a.By
	case setValueAction:
		s.Counter = a.Value
	case incrementOtherAction:
		s.Other++
	case blockAction:
	}
	return s
}

type testStore = Store[testState, testAction]

func newTestStore(t *testing.T, mws ...Middleware[testState, testAction]) *testStore {
	return newTestStoreWith(t, testReducer, Options[testState, testAction]{Middleware: mws})
}

func newTestStoreWith(t *testing.T, reducer Reducer[testState, testAction], opt Options[testState, testAction]) *testStore {
	if opt.Context == nil {
		opt.Context = t.Context()
	}
	// blocking middleware always runs first so blockAction holds the queue
	opt.Middleware = append([]Middleware[testState, testAction]{blocking()}, opt.Middleware...)
	s := New(testState{}, reducer, opt)
	t.Cleanup(s.Close)
	return s
}

func blocking() Middleware[testState, testAction] {
	return MiddlewareFunc[testState, testAction](func(mc MiddlewareContext[testState, testAction], next Next[testAction], a testAction) {
		if b, ok := a.(blockAction); ok {
			<-b.gate
		}
		next(a)
	})
}

// hold blocks the dispatch queue until the returned release func is called.
func hold(t *testing.T, s *testStore) (release func()) {
	gate := make(chan struct{})
	s.Dispatch(blockAction{gate: gate})
	var once sync.Once
	release = func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)
	return release
}

func waitIdle(t *testing.T, s *testStore) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.WaitUntilIdle(ctx))
}

// recorder collects observer values; safe for concurrent use.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

func (r *recorder[T]) observe(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder[T]) get() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

func counterOf(s testState) int { return s.Counter }
