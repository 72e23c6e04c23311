package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/boundq/errors"
)

// Run statuses recorded on spans and metrics.
const (
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// RunContext carries telemetry state for one pipeline run.
type RunContext struct {
	RunID     string
	Capacity  int
	StartTime time.Time
	Tracer    trace.Tracer
	Metrics   *PipelineMetrics
}

// NewRunContext creates a RunContext. A nil tracer falls back to the global
// provider; nil metrics are skipped.
func NewRunContext(runID string, capacity int, tracer trace.Tracer, metrics *PipelineMetrics) *RunContext {
	if tracer == nil {
		tracer = Tracer(InstrumentationName)
	}
	return &RunContext{
		RunID:     runID,
		Capacity:  capacity,
		StartTime: time.Now(),
		Tracer:    tracer,
		Metrics:   metrics,
	}
}

type runContextKey struct{}

// WithRunContext stores rc in ctx.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext returns the RunContext in ctx, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// Start opens the pipeline.run span and stores rc in the returned context.
func (rc *RunContext) Start(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := rc.Tracer.Start(ctx, SpanPipelineRun, trace.WithAttributes(
		attribute.String(AttrRunID, rc.RunID),
		attribute.Int(AttrCapacity, rc.Capacity),
	))
	return WithRunContext(ctx, rc), span
}

// RunOutcome summarises a finished run.
type RunOutcome struct {
	Produced int
	Consumed int
	Err      error
}

// Status classifies the outcome as ok, canceled or failed.
func (o RunOutcome) Status() string {
	switch {
	case o.Err == nil:
		return StatusOK
	case errors.HasCode(o.Err, errors.ErrCodeCanceled):
		return StatusCanceled
	default:
		return StatusFailed
	}
}

// End closes span and records the run metrics.
func (rc *RunContext) End(ctx context.Context, span trace.Span, out RunOutcome) {
	duration := rc.Duration()
	status := out.Status()

	if out.Err != nil {
		recordError(span, out.Err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(
		attribute.Int(AttrProduced, out.Produced),
		attribute.Int(AttrConsumed, out.Consumed),
		attribute.String(AttrStatus, status),
	)
	span.End()

	rc.Metrics.RecordRun(ctx, status, out.Produced, out.Consumed, duration)
}

// Duration returns the time since the run started.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if appErr, ok := errors.AsAppError(err); ok {
		span.SetAttributes(attribute.String(AttrErrorCode, string(appErr.Code)))
	}
}
