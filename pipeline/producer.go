package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kbukum/boundq/errors"
	"github.com/kbukum/boundq/logger"
	"github.com/kbukum/boundq/observability"
	"github.com/kbukum/boundq/queue"
	"github.com/kbukum/boundq/resilience"
)

// Producer reads a source in order and puts each value on the queue, then
// puts exactly one EndOfStream marker however it stops.
type Producer[T any] struct {
	q       *queue.Queue[Envelope[T]]
	src     Iterator[T]
	cfg     Config
	log     *logger.Logger
	metrics *observability.PipelineMetrics
	limiter *resilience.RateLimiter

	// markerCtx bounds the final marker put. It is never the run context,
	// so a cancelled run still lets the consumer terminate.
	markerCtx context.Context

	sent atomic.Int64
}

// NewProducer creates a producer that moves src into q.
func NewProducer[T any](q *queue.Queue[Envelope[T]], src Iterator[T], cfg Config, opts ...Option) (*Producer[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	p := &Producer[T]{
		q:         q,
		src:       src,
		cfg:       cfg,
		log:       o.loggerFor("pipeline.producer"),
		metrics:   o.metrics,
		markerCtx: context.Background(),
	}
	if cfg.Rate > 0 {
		rl, err := resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name:  "producer",
			Rate:  cfg.Rate,
			Burst: cfg.Burst,
		})
		if err != nil {
			return nil, err
		}
		p.limiter = rl
	}
	return p, nil
}

// Sent returns the number of payloads put so far.
func (p *Producer[T]) Sent() int { return int(p.sent.Load()) }

// Run produces until the source is exhausted, fails, or ctx ends. Source,
// transform and put failures return PRODUCER_FAILURE with an items_sent
// detail. When ctx ends first the error is CANCELED, or TIMEOUT for a
// passed deadline. A panic in the source is recovered as PRODUCER_FAILURE.
// A Producer runs once.
func (p *Producer[T]) Run(ctx context.Context) (err error) {
	log := p.log.WithContext(ctx)
	log.Debug("producer started", logger.Fields(logger.FieldCapacity, p.q.Cap()))

	defer func() {
		if r := recover(); r != nil {
			err = p.failure(fmt.Errorf("panic in source: %v", r))
		}
		if cerr := p.src.Close(); cerr != nil && err == nil {
			err = p.failure(cerr)
		}
		p.sendEnd(log)

		if err != nil {
			log.WithError(err).Warn("producer stopped early", logger.Fields(logger.FieldItems, p.Sent()))
			return
		}
		log.Debug("producer finished", logger.Fields(logger.FieldItems, p.Sent()))
	}()

	for {
		v, ok, nerr := p.src.Next(ctx)
		if nerr != nil {
			return p.classify(ctx, nerr)
		}
		if !ok {
			return nil
		}
		if p.limiter != nil {
			if werr := p.limiter.Wait(ctx); werr != nil {
				return p.classify(ctx, werr)
			}
		}
		if perr := p.put(ctx, Payload(v)); perr != nil {
			return p.classify(ctx, perr)
		}
		p.sent.Add(1)
	}
}

// put enqueues env, retrying timed-out attempts up to PutRetries times.
func (p *Producer[T]) put(ctx context.Context, env Envelope[T]) error {
	if p.cfg.PutTimeout <= 0 {
		return p.q.Put(ctx, env)
	}

	cfg := resilience.RetryConfig{
		MaxAttempts:    p.cfg.PutRetries + 1,
		InitialBackoff: p.cfg.retryBackoff(),
		RetryIf: func(err error) bool {
			return queue.IsTimedOut(err) && ctx.Err() == nil
		},
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			p.metrics.RecordRetry(ctx)
			p.log.WithContext(ctx).Debug("put timed out, retrying", logger.Fields(
				logger.FieldAttempt, attempt,
				logger.FieldItems, p.Sent(),
				"backoff", backoff.String(),
			))
		},
	}
	return resilience.RetryFunc(ctx, cfg, func() error {
		putCtx, cancel := context.WithTimeout(ctx, p.cfg.PutTimeout)
		defer cancel()
		return p.q.Put(putCtx, env)
	})
}

// classify turns a stop reason into the error Run returns.
func (p *Producer[T]) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return interrupted("producer", ctxErr).WithDetail("items_sent", p.Sent())
	}
	return p.failure(err)
}

func (p *Producer[T]) failure(cause error) error {
	return errors.ProducerFailure(cause).WithDetail("items_sent", p.Sent())
}

// sendEnd puts the marker. It fails only when markerCtx ends, which means
// the consumer is already gone.
func (p *Producer[T]) sendEnd(log *logger.Logger) {
	if err := p.q.Put(p.markerCtx, EndOfStream[T]()); err != nil {
		if !stderrors.Is(err, context.Canceled) {
			log.WithError(err).Warn("end-of-stream marker not delivered")
		}
		return
	}
	log.Debug("end-of-stream sent")
}
