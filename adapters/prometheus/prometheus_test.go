package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/flux-go/core/store"
)

func TestNewStoreMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)

	require.NotNil(t, m)

	timer := m.ActionDuration("counter.Increment")
	assert.NotNil(t, timer)
	timer.ObserveDuration()

	m.ActionProcessed("counter.Increment", store.OutcomeCommitted)
	m.ActionProcessed("counter.Increment", store.OutcomeDropped)
	m.ActionPanic("counter.Increment")

	m.QueueDepth("store-1", 10)
	m.Subscribers("store-1", 2)
	m.TaskInflight("store-1", 1)

	timer = m.TaskDuration()
	assert.NotNil(t, timer)
	timer.ObserveDuration()

	m.TaskCompleted(true)
	m.TaskCompleted(false)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}

	assert.True(t, names["flux_store_action_duration_seconds"])
	assert.True(t, names["flux_store_actions_total"])
	assert.True(t, names["flux_store_panics_total"])
	assert.True(t, names["flux_store_queue_depth"])
	assert.True(t, names["flux_store_subscribers"])
	assert.True(t, names["flux_store_tasks_total"])
}

type counterAction interface{ isCounterAction() }

type increment struct{}

func (increment) isCounterAction() {}

func TestStoreMetrics_in_store(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg).(*storeMetrics)

	reducer := store.MustCombine(
		[]counterAction{increment{}},
		store.On(func(s int, _ increment) int { return s + 1 }),
	)
	s := store.New(0, reducer, store.Options[int, counterAction]{
		ID:      "counter",
		Context: t.Context(),
		Metrics: m,
	})
	t.Cleanup(s.Close)

	sub := s.Subscribe(func(int) {})
	for range 3 {
		s.Dispatch(increment{})
	}
	require.NoError(t, s.WaitUntilIdle(t.Context()))

	require.Equal(t, float64(3), testutil.ToFloat64(m.actionsTotal.WithLabelValues("prometheus.increment", "committed")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.subscribers.WithLabelValues("counter")))

	// the queue gauge is updated right after the idle waiters are woken
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.queueDepth.WithLabelValues("counter")) == 0
	}, time.Second, time.Millisecond)

	sub.Unsubscribe()
	require.Equal(t, float64(0), testutil.ToFloat64(m.subscribers.WithLabelValues("counter")))
}

func TestBoolToStr(t *testing.T) {
	assert.Equal(t, "true", boolToStr(true))
	assert.Equal(t, "false", boolToStr(false))
}
