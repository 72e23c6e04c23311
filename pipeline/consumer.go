package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/boundq/errors"
	"github.com/kbukum/boundq/logger"
	"github.com/kbukum/boundq/queue"
)

// Consumer takes envelopes off the queue in order, appending payloads to
// its destination until it sees EndOfStream. The marker itself is never
// appended.
type Consumer[T any] struct {
	q    *queue.Queue[Envelope[T]]
	cfg  Config
	sink Sink[T]
	log  *logger.Logger

	mu    sync.Mutex
	items []T
}

// NewConsumer creates a consumer reading from q.
func NewConsumer[T any](q *queue.Queue[Envelope[T]], cfg Config, opts ...Option) (*Consumer[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	sink, ok := sinkFor[T](o)
	if !ok {
		return nil, errors.Configuration("sink",
			fmt.Sprintf("sink type %T does not accept %T items", o.sink, *new(T)))
	}
	return &Consumer[T]{
		q:     q,
		cfg:   cfg,
		sink:  sink,
		log:   o.loggerFor("pipeline.consumer"),
		items: make([]T, 0),
	}, nil
}

// Items returns a copy of everything consumed so far, in order.
func (c *Consumer[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Received returns the number of payloads consumed so far.
func (c *Consumer[T]) Received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Run consumes until EndOfStream and returns nil. An exceeded GetTimeout or
// a Sink error returns CONSUMER_FAILURE; ctx ending returns CANCELED or
// TIMEOUT. A panicking Sink is recovered as CONSUMER_FAILURE.
func (c *Consumer[T]) Run(ctx context.Context) (err error) {
	log := c.log.WithContext(ctx)
	log.Debug("consumer started")

	defer func() {
		if r := recover(); r != nil {
			err = c.failure(fmt.Errorf("panic in sink: %v", r))
		}
		if err != nil {
			log.WithError(err).Warn("consumer stopped early", logger.Fields(logger.FieldItems, c.Received()))
			return
		}
		log.Debug("consumer finished", logger.Fields(logger.FieldItems, c.Received()))
	}()

	for {
		env, gerr := c.get(ctx)
		if gerr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return interrupted("consumer", ctxErr).WithDetail("items_received", c.Received())
			}
			return c.failure(gerr)
		}
		if env.IsEnd() {
			log.Debug("end-of-stream received")
			return nil
		}

		item := env.Value()
		if c.sink != nil {
			if serr := c.sink(ctx, item); serr != nil {
				return c.failure(serr)
			}
		}
		c.mu.Lock()
		c.items = append(c.items, item)
		c.mu.Unlock()
	}
}

func (c *Consumer[T]) get(ctx context.Context) (Envelope[T], error) {
	if c.cfg.GetTimeout <= 0 {
		return c.q.Get(ctx)
	}
	getCtx, cancel := context.WithTimeout(ctx, c.cfg.GetTimeout)
	defer cancel()
	return c.q.Get(getCtx)
}

func (c *Consumer[T]) failure(cause error) error {
	return errors.ConsumerFailure(cause).WithDetail("items_received", c.Received())
}
