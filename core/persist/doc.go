// Package persist saves store snapshots to a [kv.Store] and restores them.
//
// [Middleware] writes every committed state that differs from the previous
// one in a background task, so the dispatch queue never waits for the
// backend. [Restore] loads the last snapshot before the store is created:
//
//	kvs := kv.NewMemStore()
//	initial, err := persist.Restore(ctx, kvs, "counter", Counter{})
//	if err != nil {
//	    return err
//	}
//	s := store.New(initial, reducer, store.Options[Counter, CounterAction]{
//	    Middleware: []store.Middleware[Counter, CounterAction]{
//	        persist.Middleware(kvs, persist.Options[Counter, CounterAction]{Key: "counter"}),
//	    },
//	})
//
// [kv.Store]: github.com/codewandler/flux-go/ports/kv.Store
package persist
