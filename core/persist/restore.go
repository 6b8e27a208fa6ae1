package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/codewandler/flux-go/core/sf"
	"github.com/codewandler/flux-go/internal/codec"
	"github.com/codewandler/flux-go/ports/kv"
)

// Snapshot is a persisted state together with the store version it was
// committed at.
type Snapshot[S any] struct {
	State   S
	Version uint64
}

// Restorer loads snapshots. Concurrent loads of one key share a single
// backend read.
type Restorer[S any] struct {
	kvs   kv.Store
	codec Codec
	group *sf.Singleflight[Snapshot[S]]
}

// NewRestorer creates a Restorer. A nil codec selects JSON.
func NewRestorer[S any](kvs kv.Store, c Codec) *Restorer[S] {
	if c == nil {
		c = codec.JSON{}
	}
	return &Restorer[S]{kvs: kvs, codec: c, group: sf.New[Snapshot[S]]()}
}

// Load returns the snapshot stored under key, or kv.ErrNotFound.
func (r *Restorer[S]) Load(ctx context.Context, key string) (Snapshot[S], error) {
	snap, err := r.group.Do(key, func() (*Snapshot[S], error) {
		entry, err := r.kvs.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		state, err := codec.Decode[S](r.codec, entry.Data)
		if err != nil {
			return nil, fmt.Errorf("restore %s: %w", key, err)
		}
		return &Snapshot[S]{State: state, Version: versionOf(entry.Meta)}, nil
	})
	if err != nil {
		return Snapshot[S]{}, err
	}
	return *snap, nil
}

// Restore returns the state stored under key, or fallback if there is none.
func (r *Restorer[S]) Restore(ctx context.Context, key string, fallback S) (S, error) {
	snap, err := r.Load(ctx, key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return fallback, nil
	case err != nil:
		return fallback, err
	}
	return snap.State, nil
}

// Restore loads the JSON snapshot stored under key, or returns fallback if
// there is none.
func Restore[S any](ctx context.Context, kvs kv.Store, key string, fallback S) (S, error) {
	return NewRestorer[S](kvs, nil).Restore(ctx, key, fallback)
}

// versionOf reads the version metadata; backends that round-trip metadata
// through JSON return it as a float64.
func versionOf(meta map[string]any) uint64 {
	switch v := meta[metaVersion].(type) {
	case uint64:
		return v
	case int:
		return uint64(v)
	case int64:
		return uint64(v)
	case float64:
		return uint64(v)
	case json.Number:
		n, _ := v.Int64()
		return uint64(n)
	default:
		return 0
	}
}
