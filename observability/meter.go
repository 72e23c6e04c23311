package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/boundq/logger"
)

// Metric names.
const (
	MetricQueueTransfers  = "boundq.queue.transfers"
	MetricQueueWaits      = "boundq.queue.waits"
	MetricQueueTimeouts   = "boundq.queue.timeouts"
	MetricQueueDepth      = "boundq.queue.depth"
	MetricRuns            = "boundq.pipeline.runs"
	MetricRunDuration     = "boundq.pipeline.duration"
	MetricItems           = "boundq.pipeline.items"
	MetricProducerRetries = "boundq.producer.retries"
)

// InitMeter creates an OTLP/HTTP meter provider with a periodic reader and
// installs it globally. The caller must Shutdown the returned provider.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		logger.FieldService, cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// PipelineMetrics holds the instruments for queue and run telemetry. It
// implements queue.Observer. A nil *PipelineMetrics records nothing.
type PipelineMetrics struct {
	transfers   metric.Int64Counter
	waits       metric.Int64Counter
	timeouts    metric.Int64Counter
	depth       metric.Int64Histogram
	runs        metric.Int64Counter
	runDuration metric.Float64Histogram
	items       metric.Int64Counter
	retries     metric.Int64Counter
}

// NewPipelineMetrics creates the instruments on meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var (
		m   PipelineMetrics
		err error
	)

	if m.transfers, err = meter.Int64Counter(MetricQueueTransfers,
		metric.WithDescription("Successful queue puts and gets"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricQueueTransfers, err)
	}
	if m.waits, err = meter.Int64Counter(MetricQueueWaits,
		metric.WithDescription("Queue operations that had to block"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricQueueWaits, err)
	}
	if m.timeouts, err = meter.Int64Counter(MetricQueueTimeouts,
		metric.WithDescription("Queue operations that gave up at their deadline"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricQueueTimeouts, err)
	}
	if m.depth, err = meter.Int64Histogram(MetricQueueDepth,
		metric.WithDescription("Queue size observed after each transfer"),
		metric.WithUnit("{item}"),
	); err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricQueueDepth, err)
	}
	if m.runs, err = meter.Int64Counter(MetricRuns,
		metric.WithDescription("Completed pipeline runs by status"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRuns, err)
	}
	if m.runDuration, err = meter.Float64Histogram(MetricRunDuration,
		metric.WithDescription("Duration of pipeline runs in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricRunDuration, err)
	}
	if m.items, err = meter.Int64Counter(MetricItems,
		metric.WithDescription("Items produced and consumed by role"),
		metric.WithUnit("{item}"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricItems, err)
	}
	if m.retries, err = meter.Int64Counter(MetricProducerRetries,
		metric.WithDescription("Producer put retries after a timeout"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricProducerRetries, err)
	}

	return &m, nil
}

func opAttr(op string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(AttrOperation, op))
}

// QueueWaited counts an operation that blocked.
func (m *PipelineMetrics) QueueWaited(op string) {
	if m == nil {
		return
	}
	m.waits.Add(context.Background(), 1, opAttr(op))
}

// QueueTimedOut counts an operation that timed out.
func (m *PipelineMetrics) QueueTimedOut(op string) {
	if m == nil {
		return
	}
	m.timeouts.Add(context.Background(), 1, opAttr(op))
}

// QueueTransferred counts a successful operation and records the queue depth.
func (m *PipelineMetrics) QueueTransferred(op string, size int) {
	if m == nil {
		return
	}
	ctx := context.Background()
	m.transfers.Add(ctx, 1, opAttr(op))
	m.depth.Record(ctx, int64(size), opAttr(op))
}

// RecordRetry counts one producer put retry.
func (m *PipelineMetrics) RecordRetry(ctx context.Context) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1)
}

// RecordRun records a finished run.
func (m *PipelineMetrics) RecordRun(ctx context.Context, status string, produced, consumed int, d time.Duration) {
	if m == nil {
		return
	}
	statusAttr := metric.WithAttributes(attribute.String(AttrStatus, status))
	m.runs.Add(ctx, 1, statusAttr)
	m.runDuration.Record(ctx, d.Seconds(), statusAttr)
	m.items.Add(ctx, int64(produced), metric.WithAttributes(attribute.String("role", "producer")))
	m.items.Add(ctx, int64(consumed), metric.WithAttributes(attribute.String("role", "consumer")))
}
