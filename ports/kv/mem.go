package kv

import (
	"context"
	"maps"
	"sync"
	"time"
)

type memEntry struct {
	entry     Entry
	expiresAt time.Time
}

// MemStore is an in-process Store. Expired entries are removed lazily on
// access.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]memEntry
	now  func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{data: map[string]memEntry{}, now: time.Now}
}

func (m *MemStore) Put(ctx context.Context, key string, entry Entry, opts PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := memEntry{entry: Entry{
		Data: append([]byte(nil), entry.Data...),
		Meta: maps.Clone(entry.Meta),
	}}
	if opts.TTL > 0 {
		e.expiresAt = m.now().Add(opts.TTL)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = e
	return nil
}

func (m *MemStore) Get(ctx context.Context, key string) (entry Entry, err error) {
	if err := ctx.Err(); err != nil {
		return entry, err
	}

	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return entry, ErrNotFound
	}

	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.data[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.data, key)
		}
		m.mu.Unlock()
		return entry, ErrNotFound
	}

	return Entry{Data: append([]byte(nil), e.entry.Data...), Meta: maps.Clone(e.entry.Meta)}, nil
}

func (m *MemStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

var _ Store = (*MemStore)(nil)
