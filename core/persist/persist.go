package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/codewandler/flux-go/core/store"
	"github.com/codewandler/flux-go/internal/codec"
	"github.com/codewandler/flux-go/ports/kv"
)

const metaVersion = "version"

var ErrNoKey = errors.New("persist: key is required")

// Codec encodes persisted states. The default is compact JSON.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type Options[S, A any] struct {
	// Key under which the snapshot is stored. Required.
	Key   string
	Codec Codec
	// TTL is passed to the backend on every write.
	TTL time.Duration
	// Timeout bounds a single write. Defaults to 5s.
	Timeout time.Duration
	// OnError maps a failed write to an action dispatched to the store.
	// Returning false dispatches nothing; the failure is logged either way.
	OnError func(err error) (A, bool)
}

// Middleware returns a store middleware that persists the state after every
// action that changed it. Writes run in a background task; while a write is
// in flight, later states are coalesced and only the newest one is written.
// The version stored alongside is the store's commit counter, which starts
// again at zero for a store created from a restored state. A write is skipped
// as stale only against what this middleware already wrote.
func Middleware[S, A any](kvs kv.Store, opts Options[S, A]) store.Middleware[S, A] {
	if opts.Key == "" {
		panic(ErrNoKey)
	}
	if opts.Codec == nil {
		opts.Codec = codec.JSON{}
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}

	w := &writer[S]{kvs: kvs, key: opts.Key, codec: opts.Codec, ttl: opts.TTL}

	return store.MiddlewareFunc[S, A](func(mc store.MiddlewareContext[S, A], next store.Next[A], action A) {
		pre, before := mc.State(), mc.Version()
		next(action)
		post, version := mc.State(), mc.Version()
		if version == before || reflect.DeepEqual(pre, post) {
			return
		}
		if !w.offer(post, version) {
			return
		}

		mc.Go(func(tc store.TaskContext[S, A]) {
			w.flush(func(state S, version uint64) {
				// a closing store waits for its tasks, so pending writes still land
				ctx, cancel := context.WithTimeout(context.WithoutCancel(tc), opts.Timeout)
				defer cancel()

				err := w.save(ctx, state, version)
				if err == nil {
					return
				}
				tc.Log().Warn(
					"persist state failed",
					slog.String("key", opts.Key),
					slog.Uint64("version", version),
					slog.Any("error", err),
				)
				if opts.OnError == nil {
					return
				}
				if a, ok := opts.OnError(err); ok {
					tc.Dispatch(a)
				}
			})
		})
	})
}

type pending[S any] struct {
	state   S
	version uint64
}

type writer[S any] struct {
	kvs   kv.Store
	key   string
	codec Codec
	ttl   time.Duration

	mu      sync.Mutex
	next    *pending[S]
	running bool

	// saveMu serializes backend writes
	saveMu sync.Mutex
	// saved is the last version this writer put; the backend is not consulted
	saved uint64
}

// offer records state as the newest one to write. It reports whether the
// caller must start a flush.
func (w *writer[S]) offer(state S, version uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.next = &pending[S]{state: state, version: version}
	if w.running {
		return false
	}
	w.running = true
	return true
}

// flush writes offered states until none is left.
func (w *writer[S]) flush(write func(state S, version uint64)) {
	for {
		w.mu.Lock()
		p := w.next
		w.next = nil
		if p == nil {
			w.running = false
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()

		write(p.state, p.version)
	}
}

func (w *writer[S]) save(ctx context.Context, state S, version uint64) error {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()
	if version <= w.saved {
		return nil
	}

	data, err := codec.Encode(w.codec, state)
	if err != nil {
		return err
	}
	err = w.kvs.Put(ctx, w.key, kv.Entry{
		Data: data,
		Meta: map[string]any{metaVersion: version},
	}, kv.PutOptions{TTL: w.ttl})
	if err != nil {
		return fmt.Errorf("put %s: %w", w.key, err)
	}
	w.saved = version
	return nil
}
