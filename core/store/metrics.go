package store

import "github.com/codewandler/flux-go/core/metrics"

// StoreMetrics defines the instrumentation hooks of a Store.
// All methods must be safe for concurrent use.
type StoreMetrics interface {
	// Action processing
	ActionDuration(actionType string) metrics.Timer
	ActionProcessed(actionType string, outcome Outcome)
	ActionPanic(actionType string)

	// Dispatch queue
	QueueDepth(storeID string, depth int)

	// Observer registry
	Subscribers(storeID string, count int)

	// Middleware tasks
	TaskInflight(storeID string, count int)
	TaskDuration() metrics.Timer
	TaskCompleted(success bool)
}

type nopStoreMetrics struct{}

func (nopStoreMetrics) ActionDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopStoreMetrics) ActionProcessed(string, Outcome)     {}
func (nopStoreMetrics) ActionPanic(string)                  {}

func (nopStoreMetrics) QueueDepth(string, int) {}

func (nopStoreMetrics) Subscribers(string, int) {}

func (nopStoreMetrics) TaskInflight(string, int)    {}
func (nopStoreMetrics) TaskDuration() metrics.Timer { return metrics.NopTimer() }
func (nopStoreMetrics) TaskCompleted(bool)          {}

// NopStoreMetrics returns a StoreMetrics implementation that records nothing.
func NopStoreMetrics() StoreMetrics { return nopStoreMetrics{} }
