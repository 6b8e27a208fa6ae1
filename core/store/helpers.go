package store

import (
	"log/slog"
	"reflect"
)

// ChangeDetection returns a middleware that calls onChange whenever an action
// changed the value derived by selector. onChange receives the action that
// reached the middleware and the selected values before and after reduction.
//
//	store.ChangeDetection(
//	    func(s BrowserState) string { return s.SelectedTabID },
//	    func(a BrowserAction, pre, post string) {
//	        log.Debug("selected tab changed", "action", store.ActionType(a), "from", pre, "to", post)
//	    },
//	)
func ChangeDetection[S, A, T any](selector func(S) T, onChange func(action A, pre, post T)) Middleware[S, A] {
	return MiddlewareFunc[S, A](func(mc MiddlewareContext[S, A], next Next[A], action A) {
		pre := selector(mc.State())
		next(action)
		post := selector(mc.State())
		if !reflect.DeepEqual(pre, post) {
			onChange(action, pre, post)
		}
	})
}

// Logging returns a middleware that logs every action at level, together
// with whether it was reduced. A nil logger logs to the store's logger.
func Logging[S, A any](log *slog.Logger, level slog.Level) Middleware[S, A] {
	return MiddlewareFunc[S, A](func(mc MiddlewareContext[S, A], next Next[A], action A) {
		l := log
		if l == nil {
			l = mc.Log()
		}
		before := mc.Version()
		next(action)
		reduced := mc.Version() != before

		l.Log(mc, level, "action dispatched",
			slog.String("action_type", ActionType(action)),
			slog.Bool("reduced", reduced),
			slog.Uint64("version", mc.Version()),
		)
	})
}
