package otel

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/codewandler/flux-go/core/store"
)

type counterAction interface{ isCounterAction() }

type (
	increment struct{}
	skip      struct{}
	explode   struct{}
)

func (increment) isCounterAction() {}
func (skip) isCounterAction()      {}
func (explode) isCounterAction()   {}

func reduce(s int, a counterAction) int {
	switch a.(type) {
	case increment:
		return s + 1
	case explode:
		panic("reducer bug")
	}
	return s
}

func newTracedStore(t *testing.T) (*store.Store[int, counterAction], *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	dropSkip := store.MiddlewareFunc[int, counterAction](func(mc store.MiddlewareContext[int, counterAction], next store.Next[counterAction], a counterAction) {
		if _, ok := a.(skip); ok {
			return
		}
		next(a)
	})

	s := store.New(0, reduce, store.Options[int, counterAction]{
		Context: t.Context(),
		Middleware: []store.Middleware[int, counterAction]{
			Tracing[int, counterAction](tp.Tracer("test")),
			dropSkip,
		},
		OnPanic: func(any, []byte, any) {},
	})
	t.Cleanup(s.Close)
	return s, recorder
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracing(t *testing.T) {
	s, recorder := newTracedStore(t)

	require.Equal(t, store.OutcomeCommitted, s.Dispatch(increment{}).Join())
	require.Equal(t, store.OutcomeDropped, s.Dispatch(skip{}).Join())

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	committed := attrs(spans[0])
	require.Equal(t, "store.dispatch", spans[0].Name())
	require.Equal(t, "otel.increment", committed["store.action.type"].AsString())
	require.False(t, committed["store.dropped"].AsBool())
	require.Equal(t, int64(1), committed["store.version"].AsInt64())
	require.Equal(t, codes.Ok, spans[0].Status().Code)

	dropped := attrs(spans[1])
	require.Equal(t, "otel.skip", dropped["store.action.type"].AsString())
	require.True(t, dropped["store.dropped"].AsBool())
}

func TestTracing_panic(t *testing.T) {
	s, recorder := newTracedStore(t)

	require.Equal(t, store.OutcomeFailed, s.Dispatch(explode{}).Join())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status().Code)
	require.NotEmpty(t, spans[0].Events())
}
