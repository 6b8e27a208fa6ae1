package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/flux-go/core/metrics"
	"github.com/codewandler/flux-go/core/store"
)

// storeMetrics implements store.StoreMetrics using Prometheus.
type storeMetrics struct {
	actionDuration *prometheus.HistogramVec
	actionsTotal   *prometheus.CounterVec
	panicTotal     *prometheus.CounterVec
	queueDepth     *prometheus.GaugeVec
	subscribers    *prometheus.GaugeVec
	taskInflight   *prometheus.GaugeVec
	taskDuration   prometheus.Histogram
	tasksTotal     *prometheus.CounterVec
}

// NewStoreMetrics registers the store collectors with reg. Stores sharing
// the result are told apart by the store_id label where it applies.
func NewStoreMetrics(reg prometheus.Registerer) store.StoreMetrics {
	m := &storeMetrics{
		actionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flux_store_action_duration_seconds",
			Help:    "Time spent in middleware and reducer per action, in seconds",
			Buckets: defaultBuckets,
		}, []string{"action_type"}),

		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flux_store_actions_total",
			Help: "Total number of processed actions by outcome",
		}, []string{"action_type", "outcome"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flux_store_panics_total",
			Help: "Total number of reducer and middleware panics",
		}, []string{"action_type"}),

		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flux_store_queue_depth",
			Help: "Number of actions waiting in or being processed by the dispatch queue",
		}, []string{"store_id"}),

		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flux_store_subscribers",
			Help: "Number of registered subscriptions",
		}, []string{"store_id"}),

		taskInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flux_store_task_inflight",
			Help: "Number of running middleware tasks",
		}, []string{"store_id"}),

		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flux_store_task_duration_seconds",
			Help:    "Middleware task duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flux_store_tasks_total",
			Help: "Total number of middleware tasks completed",
		}, []string{"success"}),
	}

	reg.MustRegister(
		m.actionDuration,
		m.actionsTotal,
		m.panicTotal,
		m.queueDepth,
		m.subscribers,
		m.taskInflight,
		m.taskDuration,
		m.tasksTotal,
	)

	return m
}

func (m *storeMetrics) ActionDuration(actionType string) metrics.Timer {
	return newTimer(m.actionDuration.WithLabelValues(actionType))
}

func (m *storeMetrics) ActionProcessed(actionType string, outcome store.Outcome) {
	m.actionsTotal.WithLabelValues(actionType, outcome.String()).Inc()
}

func (m *storeMetrics) ActionPanic(actionType string) {
	m.panicTotal.WithLabelValues(actionType).Inc()
}

func (m *storeMetrics) QueueDepth(storeID string, depth int) {
	m.queueDepth.WithLabelValues(storeID).Set(float64(depth))
}

func (m *storeMetrics) Subscribers(storeID string, count int) {
	m.subscribers.WithLabelValues(storeID).Set(float64(count))
}

func (m *storeMetrics) TaskInflight(storeID string, count int) {
	m.taskInflight.WithLabelValues(storeID).Set(float64(count))
}

func (m *storeMetrics) TaskDuration() metrics.Timer {
	return newTimer(m.taskDuration)
}

func (m *storeMetrics) TaskCompleted(success bool) {
	m.tasksTotal.WithLabelValues(boolToStr(success)).Inc()
}

var _ store.StoreMetrics = (*storeMetrics)(nil)
