// Package store provides a unidirectional state container.
//
// A [Store] owns an immutable state value. Producers describe intended changes
// as actions; every action passes an ordered middleware chain and a pure
// reducer on a single dispatch queue, and each committed state is delivered
// to subscriptions.
//
// # Creating a Store
//
//	type Counter struct{ Value int }
//
//	type CounterAction interface{ isCounterAction() }
//	type Increment struct{}
//	type SetValue struct{ Value int }
//
//	reducer := store.MustCombine(
//	    []CounterAction{Increment{}, SetValue{}},
//	    store.On(func(s Counter, _ Increment) Counter { s.Value++; return s }),
//	    store.On(func(s Counter, a SetValue) Counter { s.Value = a.Value; return s }),
//	)
//
//	s := store.New(Counter{}, reducer, store.Options[Counter, CounterAction]{
//	    Middleware: []store.Middleware[Counter, CounterAction]{
//	        store.Logging[Counter, CounterAction](nil, slog.LevelDebug),
//	    },
//	})
//	defer s.Close()
//
// [Combine] checks at construction that every declared variant has exactly one
// case. A plain function with a type switch is a valid [Reducer] as well.
//
// # Dispatching
//
// [Store.Dispatch] never blocks. Actions are applied strictly in queue order,
// one at a time; an action dispatched from middleware is enqueued behind the
// current one instead of running inline. The returned [Handle] completes once
// the action was reduced, dropped by middleware, cancelled, or rejected:
//
//	h := s.Dispatch(Increment{})
//	if h.Join() == store.OutcomeCommitted {
//	    fmt.Println(s.State().Value)
//	}
//
// # Middleware
//
// A [Middleware] sees every action before the reducer. It calls next to pass
// the action (or a replacement) on, or does not call it to drop the action.
// Slow work runs in background tasks started with [MiddlewareContext.Go]; the
// task reports results by dispatching follow-up actions:
//
//	store.MiddlewareFunc[S, A](func(mc store.MiddlewareContext[S, A], next store.Next[A], a A) {
//	    next(a)
//	    if f, ok := a.(Fetch); ok {
//	        mc.Go(func(tc store.TaskContext[S, A]) {
//	            body, err := client.Get(tc, f.URL)
//	            if err != nil {
//	                tc.Dispatch(FetchFailed{Reason: err.Error()})
//	                return
//	            }
//	            tc.Dispatch(Fetched{Body: body})
//	        })
//	    }
//	})
//
// # Observing
//
// [Store.Subscribe], [Select] and [SelectFunc] register observers. Each
// observer is invoked once with the current value and then after every commit
// that changed its selected value. [WithScope] ties a subscription to a
// context or an [Owner]. [Flow] and [Binding] expose the same updates as a
// channel.
//
// # Failures
//
// Reducer and middleware panics are programming errors: they are reported to
// [Options.OnPanic] and leave the store failed; see [Store.Err]. Expected
// failures such as I/O errors are modelled as actions.
package store
