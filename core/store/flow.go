package store

import "context"

// Flow streams the values derived by selector until ctx is done, starting
// with the current one. Consecutive equal values are skipped. Values are
// buffered without bound, so a slow reader never stalls the dispatch queue.
// The channel is closed once ctx is done.
func Flow[S, A, T any](ctx context.Context, s *Store[S, A], selector func(S) T) <-chan T {
	out := make(chan T)
	buf := newQueue[T]()

	sub := Select(s, selector, func(v T) { buf.push(v) }, WithScope(ctx))

	go func() {
		defer close(out)
		defer sub.Unsubscribe()

		for {
			v, ok := buf.pop()
			if !ok {
				select {
				case <-ctx.Done():
					return
				case <-buf.ready:
				}
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- v:
			}
		}
	}()

	return out
}
