package wrapper

// A measurement is reported once, then forgotten.
// If the host call fails, nothing is reported.
// No retries. No recovery.

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/psantana5/hostbench/internal/observe"
)

// Func is a benchmark body
type Func func() error

// Wrapped is a timed version of a Func
type Wrapped func(ctx context.Context) error

type options struct {
	tracer trace.Tracer
}

// Option configures Timerify
type Option func(*options)

// WithTracer wraps every timed invocation in a span
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// Timerify returns a wrapped fn that emits one function entry to stream
// per successful call. A failing call returns its error untouched and
// emits nothing.
func Timerify(name string, fn Func, stream *observe.Stream, opts ...Option) Wrapped {
	o := options{tracer: noop.NewTracerProvider().Tracer("")}
	for _, opt := range opts {
		opt(&o)
	}

	return func(ctx context.Context) error {
		_, span := o.tracer.Start(ctx, name,
			trace.WithAttributes(attribute.String("entry_type", string(observe.EntryTypeFunction))))
		defer span.End()

		timing := observe.NewTiming()
		err := fn()
		timing.Complete()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		entry := timing.Entry(name, observe.EntryTypeFunction)
		span.SetAttributes(attribute.Int64("duration_ns", entry.Duration.Nanoseconds()))

		if stream != nil {
			stream.Emit(entry)
		}
		return nil
	}
}
