// Package metrics provides the backend-neutral instrumentation primitives used
// by the store. Backends such as Prometheus implement them in adapters/.
package metrics

// Timer measures the duration of an operation. Call ObserveDuration when
// the operation completes to record the elapsed time:
//
//	defer m.ActionDuration("counter.Increment").ObserveDuration()
type Timer interface {
	// ObserveDuration records the elapsed time since the timer was created.
	ObserveDuration()
}
