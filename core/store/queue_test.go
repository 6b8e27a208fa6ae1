package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	q := newQueue[int]()

	_, ok := q.pop()
	require.False(t, ok)

	require.True(t, q.push(1))
	require.True(t, q.push(2))
	require.True(t, q.push(3))
	require.Equal(t, 3, q.len())

	select {
	case <-q.ready:
	default:
		t.Fatal("ready not signalled")
	}

	v, ok := q.pop()
	require.True(t, ok)
	require.Equal(t, 1, v)

	require.Equal(t, []int{2, 3}, q.close())
	require.False(t, q.push(4))
	require.Equal(t, 0, q.len())
}

func TestBroadcast(t *testing.T) {
	var b broadcast
	b.notify()

	w1 := b.wait()
	w2 := b.wait()
	b.notify()

	for _, w := range []<-chan struct{}{w1, w2} {
		select {
		case <-w:
		default:
			t.Fatal("waiter not woken")
		}
	}

	select {
	case <-b.wait():
		t.Fatal("fresh waiter woken")
	default:
	}
}
