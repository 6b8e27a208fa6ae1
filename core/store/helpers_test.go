package store

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChangeDetection(t *testing.T) {
	type change struct {
		action    testAction
		pre, post int
	}
	var (
		mu      sync.Mutex
		changes []change
	)
	detect := ChangeDetection(counterOf, func(a testAction, pre, post int) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, change{action: a, pre: pre, post: post})
	})

	s := newTestStore(t, detect)
	s.Dispatch(incrementAction{})
	s.Dispatch(incrementOtherAction{})
	s.Dispatch(setValueAction{Value: 100})
	waitIdle(t, s)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []change{
		{action: incrementAction{}, pre: 0, post: 1},
		{action: setValueAction{Value: 100}, pre: 1, post: 100},
	}, changes)
}

func TestLogging(t *testing.T) {
	var (
		mu  sync.Mutex
		buf bytes.Buffer
	)
	log := slog.New(slog.NewTextHandler(&lockedWriter{mu: &mu, w: &buf}, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drop := MiddlewareFunc[testState, testAction](func(mc MiddlewareContext[testState, testAction], next Next[testAction], a testAction) {
		if _, ok := a.(incrementOtherAction); ok {
			return
		}
		next(a)
	})

	s := newTestStore(t, Logging[testState, testAction](log, slog.LevelInfo), drop)
	s.Dispatch(incrementAction{})
	s.Dispatch(incrementOtherAction{})
	waitIdle(t, s)

	mu.Lock()
	out := buf.String()
	mu.Unlock()

	require.Contains(t, out, `msg="action dispatched" action_type=store.incrementAction reduced=true version=1`)
	require.Contains(t, out, `msg="action dispatched" action_type=store.incrementOtherAction reduced=false version=1`)
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
