package store

import "sync"

// Scope bounds the lifetime of a subscription. A context.Context is a valid
// Scope; Owner is an explicit one for components that signal their own end.
type Scope interface {
	Done() <-chan struct{}
}

// Owner is a Scope ended by calling End, for example when a screen or
// feature controller shuts down.
type Owner struct {
	once sync.Once
	done chan struct{}
}

// NewOwner creates an active Owner.
func NewOwner() *Owner {
	return &Owner{done: make(chan struct{})}
}

// End terminates the scope. Subsequent calls are no-ops.
func (o *Owner) End() {
	o.once.Do(func() { close(o.done) })
}

// Done is closed once End was called.
func (o *Owner) Done() <-chan struct{} { return o.done }

func scopeEnded(s Scope) bool {
	if s == nil {
		return false
	}
	select {
	case <-s.Done():
		return true
	default:
		return false
	}
}
