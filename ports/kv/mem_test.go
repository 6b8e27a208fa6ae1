package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Memory(t *testing.T) {
	s := NewMemStore()

	_, err := s.Get(t.Context(), "foobar")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(t.Context(), "p1", Entry{Data: []byte("one"), Meta: map[string]any{"version": uint64(1)}}, PutOptions{}))
	require.NoError(t, s.Put(t.Context(), "p2", Entry{Data: []byte("two")}, PutOptions{}))

	loaded, err := s.Get(t.Context(), "p1")
	require.NoError(t, err)
	require.Equal(t, []byte("one"), loaded.Data)
	require.Equal(t, uint64(1), loaded.Meta["version"])

	require.NoError(t, s.Delete(t.Context(), "p1"))
	require.NoError(t, s.Delete(t.Context(), "p1"))
	_, err = s.Get(t.Context(), "p1")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, s.Len())
}

func Test_Memory_copies(t *testing.T) {
	s := NewMemStore()
	data := []byte("abc")
	require.NoError(t, s.Put(t.Context(), "k", Entry{Data: data}, PutOptions{}))
	data[0] = 'x'

	loaded, err := s.Get(t.Context(), "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), loaded.Data)
}

func Test_Memory_ttl(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewMemStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(t.Context(), "short", Entry{Data: []byte("x")}, PutOptions{TTL: time.Minute}))
	require.NoError(t, s.Put(t.Context(), "forever", Entry{Data: []byte("y")}, PutOptions{}))

	now = now.Add(59 * time.Second)
	_, err := s.Get(t.Context(), "short")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = s.Get(t.Context(), "short")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, s.Len())

	_, err = s.Get(t.Context(), "forever")
	require.NoError(t, err)
}

func Test_Memory_context(t *testing.T) {
	s := NewMemStore()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.ErrorIs(t, s.Put(ctx, "k", Entry{}, PutOptions{}), context.Canceled)
	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}
