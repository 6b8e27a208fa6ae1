// Package kv defines the key-value port used to persist store snapshots.
package kv

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
)

// Entry is a stored value with optional metadata.
type Entry struct {
	Data []byte
	Meta map[string]any
}

type PutOptions struct {
	// TTL expires the entry after the given duration. Zero keeps it forever.
	// Backends with bucket-level expiry may ignore it.
	TTL time.Duration
}

// Store is implemented by key-value backends. Get returns ErrNotFound for
// missing or expired keys; Delete of a missing key is not an error.
type Store interface {
	Put(ctx context.Context, key string, entry Entry, opts PutOptions) error
	Get(ctx context.Context, key string) (entry Entry, err error)
	Delete(ctx context.Context, key string) error
}
