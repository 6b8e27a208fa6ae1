// Package otel traces store actions with OpenTelemetry.
package otel

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/codewandler/flux-go/core/store"
)

const tracerName = "github.com/codewandler/flux-go/adapters/otel"

// Tracing returns a middleware that wraps the rest of the chain of every
// action in a "store.dispatch" span. A nil tracer uses the global provider.
//
//	store.Options[S, A]{
//	    Middleware: []store.Middleware[S, A]{
//	        otel.Tracing[S, A](nil),
//	        store.Logging[S, A](nil, slog.LevelDebug),
//	    },
//	}
func Tracing[S, A any](tracer trace.Tracer) store.Middleware[S, A] {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return store.MiddlewareFunc[S, A](func(mc store.MiddlewareContext[S, A], next store.Next[A], action A) {
		_, span := tracer.Start(mc, "store.dispatch",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("store.action.type", store.ActionType(action)),
			),
		)
		defer span.End()

		defer func() {
			if r := recover(); r != nil {
				span.RecordError(fmt.Errorf("panic: %v", r))
				span.SetStatus(codes.Error, "panic")
				panic(r)
			}
		}()

		before := mc.Version()
		next(action)

		version := mc.Version()
		span.SetAttributes(
			attribute.Bool("store.dropped", version == before),
			attribute.Int64("store.version", int64(version)),
		)
		if mc.Err() != nil {
			span.SetAttributes(attribute.Bool("store.cancelled", true))
		}
		span.SetStatus(codes.Ok, "")
	})
}
