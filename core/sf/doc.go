// Package sf deduplicates concurrent calls that share a key.
//
// If several goroutines call [Singleflight.Do] with the same key while a call
// is in flight, only the first executes; the others wait and receive its
// result. The persistence layer uses it so that concurrent restores of one
// snapshot key hit the backend once:
//
//	group := sf.New[Counter]()
//	state, err := group.Do("counter", func() (*Counter, error) {
//	    return load(ctx, "counter")
//	})
package sf
