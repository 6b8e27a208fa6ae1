package sf

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleflight_Do(t *testing.T) {
	group := New[int]()

	var (
		calls   atomic.Int32
		started = make(chan struct{})
		release = make(chan struct{})
	)
	fn := func() (*int, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		v := 42
		return &v, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := group.Do("k", fn)
		assert.NoError(t, err)
		assert.Equal(t, 42, *v)
	}()
	<-started

	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := group.Do("k", fn)
			assert.NoError(t, err)
			assert.Equal(t, 42, *v)
		}()
	}

	close(release)
	wg.Wait()
	require.LessOrEqual(t, calls.Load(), int32(6))
	require.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestSingleflight_error(t *testing.T) {
	group := New[int]()
	boom := errors.New("boom")
	v, err := group.Do("k", func() (*int, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	require.Nil(t, v)
}
