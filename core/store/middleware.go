package store

import (
	"context"
	"log/slog"
	"time"
)

type (
	// Next continues the middleware chain with the given action. Each Next is
	// one-shot: it may be called at most once and only before Invoke returns.
	Next[A any] func(action A)

	// Middleware intercepts actions on their way to the reducer. A middleware
	// may pass the action on unchanged, pass a different action, or not call
	// next at all to drop it. Middleware runs on the dispatch queue and must
	// not block on I/O; slow work belongs in MiddlewareContext.Go.
	Middleware[S, A any] interface {
		Invoke(mc MiddlewareContext[S, A], next Next[A], action A)
	}

	// MiddlewareFunc adapts a function to the Middleware interface.
	MiddlewareFunc[S, A any] func(mc MiddlewareContext[S, A], next Next[A], action A)

	// MiddlewareContext is handed to each middleware invocation. Its context
	// is cancelled when the action's handle is cancelled or the store closes.
	MiddlewareContext[S, A any] interface {
		context.Context
		Log() *slog.Logger
		// State returns the latest committed state: the pre-reduction state
		// before next is called, the reduced state after it returns.
		State() S
		// Version returns the commit counter matching State.
		Version() uint64
		// Dispatch enqueues a follow-up action. It is processed after the
		// current action, never inline.
		Dispatch(action A) *Handle
		// Go runs task in the background, outside the dispatch queue.
		Go(task func(tc TaskContext[S, A]))
	}

	// TaskContext is handed to background tasks started with
	// MiddlewareContext.Go. Once the originating handle is cancelled or the
	// store is closed, Dispatch no longer enqueues anything.
	TaskContext[S, A any] interface {
		context.Context
		Log() *slog.Logger
		State() S
		Dispatch(action A) *Handle
	}
)

func (f MiddlewareFunc[S, A]) Invoke(mc MiddlewareContext[S, A], next Next[A], action A) {
	f(mc, next, action)
}

// actionCtx implements MiddlewareContext and TaskContext for one action.
type actionCtx[S, A any] struct {
	h     *Handle
	store *Store[S, A]
	log   *slog.Logger
}

func (ac *actionCtx[S, A]) Deadline() (deadline time.Time, ok bool) { return ac.h.ctx.Deadline() }
func (ac *actionCtx[S, A]) Done() <-chan struct{}                   { return ac.h.ctx.Done() }
func (ac *actionCtx[S, A]) Err() error                              { return ac.h.ctx.Err() }
func (ac *actionCtx[S, A]) Value(key any) any                       { return ac.h.ctx.Value(key) }

func (ac *actionCtx[S, A]) Log() *slog.Logger { return ac.log }
func (ac *actionCtx[S, A]) State() S          { return ac.store.State() }
func (ac *actionCtx[S, A]) Version() uint64   { return ac.store.Version() }

func (ac *actionCtx[S, A]) Dispatch(action A) *Handle {
	return ac.store.enqueue(action, ac.h)
}

func (ac *actionCtx[S, A]) Go(task func(tc TaskContext[S, A])) {
	ac.h.retain()
	ac.store.sched.schedule(func() { task(ac) }, ac.h.release)
}

var (
	_ MiddlewareContext[int, int] = (*actionCtx[int, int])(nil)
	_ TaskContext[int, int]       = (*actionCtx[int, int])(nil)
)
