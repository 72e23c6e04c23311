// Package observability wires OpenTelemetry tracing and metrics into pipeline
// runs.
//
// Providers are created from a Config and exported over OTLP/HTTP:
//
//	tp, err := observability.InitTracer(ctx, cfg)
//	defer tp.Shutdown(ctx)
//	mp, err := observability.InitMeter(ctx, cfg)
//	defer mp.Shutdown(ctx)
//
// PipelineMetrics implements queue.Observer, so the same instruments count
// queue waits, timeouts and transfers as well as whole runs:
//
//	m, err := observability.NewPipelineMetrics(observability.Meter(observability.InstrumentationName))
//	q, err := queue.New[int](8, queue.WithObserver(m))
//
// Component bundles both providers behind the component.Component lifecycle.
package observability
