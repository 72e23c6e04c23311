package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/boundq/errors"
	"github.com/kbukum/boundq/logger"
	"github.com/kbukum/boundq/observability"
	"github.com/kbukum/boundq/queue"
)

// State is the lifecycle stage of a Pipeline.
type State int32

const (
	// StateInit means the pipeline has not started.
	StateInit State = iota
	// StateRunning means producer and consumer are both active.
	StateRunning
	// StateDraining means the producer finished and the consumer is
	// emptying the queue.
	StateDraining
	// StateDone means both roles have exited.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Result describes a finished run. Items holds everything the consumer
// received, which is a prefix of the source when the run failed.
type Result[T any] struct {
	RunID    string
	Items    []T
	Produced int
	Consumed int
	Duration time.Duration
	// QueueStats counts envelopes, so a delivered end-of-stream marker adds
	// one put, one get and can raise HighWater by one. Produced and Consumed
	// count payloads only.
	QueueStats queue.Stats
	Err        error
}

// Pipeline moves a source through a bounded queue from one producer
// goroutine to one consumer goroutine. A Pipeline runs once.
type Pipeline[T any] struct {
	src  Iterator[T]
	cfg  Config
	opts []Option
	o    options

	runID   string
	log     *logger.Logger
	state   atomic.Int32
	started atomic.Bool
}

// New validates cfg and the options and returns a pipeline ready to Run.
func New[T any](src Iterator[T], cfg Config, opts ...Option) (*Pipeline[T], error) {
	if src == nil {
		return nil, errors.Configuration("source", "is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	if _, ok := sinkFor[T](o); !ok {
		return nil, errors.Configuration("sink",
			fmt.Sprintf("sink type %T does not accept %T items", o.sink, *new(T)))
	}

	runID := o.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Pipeline[T]{
		src:   src,
		cfg:   cfg,
		opts:  opts,
		o:     o,
		runID: runID,
		log:   o.loggerFor("pipeline.run"),
	}, nil
}

// RunID returns the identifier attached to logs, spans and the Result.
func (p *Pipeline[T]) RunID() string { return p.runID }

// State returns the current lifecycle stage.
func (p *Pipeline[T]) State() State { return State(p.state.Load()) }

func (p *Pipeline[T]) transition(ctx context.Context, from, to State) {
	if !p.state.CompareAndSwap(int32(from), int32(to)) {
		return
	}
	p.log.WithContext(ctx).Debug("state changed", logger.Fields(
		logger.FieldState, to.String(),
		"from", from.String(),
	))
}

// Run starts the producer and consumer and blocks until both exit. The
// returned error joins the producer and consumer failures. The Result is nil
// only when the run could not start.
func (p *Pipeline[T]) Run(ctx context.Context) (*Result[T], error) {
	if !p.started.CompareAndSwap(false, true) {
		return nil, errors.New(errors.ErrCodeInternal, "pipeline already ran")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.ContextWithRunID(ctx, p.runID)

	rc := observability.NewRunContext(p.runID, p.cfg.Capacity, p.o.tracer, p.o.metrics)
	ctx, span := rc.Start(ctx)

	var qopts []queue.Option
	if p.o.metrics != nil {
		qopts = append(qopts, queue.WithObserver(p.o.metrics))
	}
	q, err := queue.New[Envelope[T]](p.cfg.Capacity, qopts...)
	if err != nil {
		return p.abort(ctx, rc, span, err)
	}
	producer, err := NewProducer(q, p.src, p.cfg, p.opts...)
	if err != nil {
		return p.abort(ctx, rc, span, err)
	}
	consumer, err := NewConsumer[T](q, p.cfg, p.opts...)
	if err != nil {
		return p.abort(ctx, rc, span, err)
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	// The marker put outlives runCtx and ends only once the consumer is gone.
	endCtx, cancelEnd := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelEnd()
	producer.markerCtx = endCtx

	log := p.log.WithContext(ctx)
	log.Info("pipeline started", logger.Fields(logger.FieldCapacity, p.cfg.Capacity))
	p.transition(ctx, StateInit, StateRunning)

	var (
		wg         sync.WaitGroup
		prodErr    error
		consumeErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		prodErr = producer.Run(runCtx)
		if prodErr == nil {
			p.transition(ctx, StateRunning, StateDraining)
		}
	}()
	go func() {
		defer wg.Done()
		consumeErr = consumer.Run(runCtx)
		cancelEnd()
		if consumeErr != nil {
			cancelRun()
		}
	}()
	wg.Wait()

	// A producer stopped by our own cancel is a consequence of the consumer
	// failure, not a second failure.
	if consumeErr != nil && ctx.Err() == nil && errors.HasCode(prodErr, errors.ErrCodeCanceled) {
		prodErr = nil
	}
	runErr := stderrors.Join(prodErr, consumeErr)

	res := &Result[T]{
		RunID:      p.runID,
		Items:      consumer.Items(),
		Produced:   producer.Sent(),
		Consumed:   consumer.Received(),
		Duration:   rc.Duration(),
		QueueStats: q.Stats(),
		Err:        runErr,
	}
	rc.End(ctx, span, observability.RunOutcome{
		Produced: res.Produced,
		Consumed: res.Consumed,
		Err:      runErr,
	})
	p.state.Store(int32(StateDone))

	fields := logger.DurationFields("pipeline.run", res.Duration)
	fields["produced"] = res.Produced
	fields["consumed"] = res.Consumed
	fields["high_water"] = res.QueueStats.HighWater
	if runErr != nil {
		log.WithError(runErr).Warn("pipeline finished with errors", fields)
	} else {
		log.Info("pipeline finished", fields)
	}
	return res, runErr
}

// abort ends a run that failed before its goroutines started.
func (p *Pipeline[T]) abort(ctx context.Context, rc *observability.RunContext, span trace.Span, err error) (*Result[T], error) {
	log := p.log.WithContext(ctx)
	if cerr := p.src.Close(); cerr != nil {
		log.WithError(cerr).Warn("source close failed")
	}
	rc.End(ctx, span, observability.RunOutcome{Err: err})
	p.state.Store(int32(StateDone))
	log.Error("pipeline could not start", logger.ErrorFields("pipeline.start", err))
	return nil, err
}

// Run builds a pipeline over src and runs it.
func Run[T any](ctx context.Context, src Iterator[T], cfg Config, opts ...Option) (*Result[T], error) {
	p, err := New(src, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

// RunPipeline moves source through a queue of the given capacity and returns
// what the consumer received, in order. On failure the returned slice holds
// the items consumed before the run stopped.
func RunPipeline[T any](ctx context.Context, source []T, capacity int, opts ...Option) ([]T, error) {
	cfg := DefaultConfig()
	cfg.Capacity = capacity
	res, err := Run(ctx, FromSlice(source), cfg, opts...)
	if res == nil {
		return nil, err
	}
	return res.Items, err
}
