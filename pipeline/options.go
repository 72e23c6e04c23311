package pipeline

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/boundq/logger"
	"github.com/kbukum/boundq/observability"
)

// Sink receives each consumed item before it is appended to the result.
// A Sink error stops the consumer with CONSUMER_FAILURE.
type Sink[T any] func(ctx context.Context, item T) error

// Option configures a run, producer or consumer.
type Option func(*options)

type options struct {
	log     *logger.Logger
	metrics *observability.PipelineMetrics
	tracer  trace.Tracer
	sink    any
	runID   string
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// loggerFor returns the logger for a pipeline component: the WithLogger
// logger tagged with name, or the named logger from the logger registry.
func (o options) loggerFor(name string) *logger.Logger {
	if o.log != nil {
		return o.log.WithComponent(name)
	}
	return logger.Get(name)
}

// WithLogger sets the logger. Otherwise each component logs through
// logger.Get with its component name.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records queue and run metrics on m.
func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer sets the tracer for the run span. The global provider is used otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithSink delivers each consumed item to fn. The item type must match the
// pipeline's; a mismatch is reported as CONFIGURATION_ERROR when the run starts.
func WithSink[T any](fn Sink[T]) Option {
	return func(o *options) { o.sink = fn }
}

// WithRunID sets the run ID instead of generating a UUID.
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

func sinkFor[T any](o options) (Sink[T], bool) {
	if o.sink == nil {
		return nil, true
	}
	s, ok := o.sink.(Sink[T])
	return s, ok
}
