package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/boundq/errors"
)

// Queue is a capacity-bounded FIFO guarded by a single mutex and two
// condition variables sharing it. The buffer is a fixed ring, so
// 0 <= size <= capacity holds by construction.
//
// All methods are safe for concurrent use by multiple goroutines.
type Queue[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	buf  []T
	head int
	size int

	stats    Stats
	observer Observer
}

// New creates a queue holding at most capacity items. A non-positive
// capacity is a CONFIGURATION_ERROR.
func New[T any](capacity int, opts ...Option) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, errors.Configuration("capacity",
			fmt.Sprintf("capacity must be greater than 0 (got: %d)", capacity))
	}

	o := options{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}

	q := &Queue[T]{
		buf:      make([]T, capacity),
		observer: o.observer,
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q, nil
}

// MustNew is like New but panics on an invalid capacity.
func MustNew[T any](capacity int, opts ...Option) *Queue[T] {
	q, err := New[T](capacity, opts...)
	if err != nil {
		panic(err)
	}
	return q
}

// Put appends item to the tail, blocking while the queue is full. It returns
// an error matching ErrTimedOut if ctx's deadline passes first, or ErrCanceled
// if ctx is cancelled; the queue is unchanged in both cases.
func (q *Queue[T]) Put(ctx context.Context, item T) error {
	return q.put(ctx, item, time.Time{})
}

// PutTimeout is Put bounded by timeout. A zero timeout tries once without
// blocking; a negative timeout is a CONFIGURATION_ERROR.
func (q *Queue[T]) PutTimeout(item T, timeout time.Duration) error {
	deadline, err := deadlineFor(timeout)
	if err != nil {
		return err
	}
	return q.put(context.Background(), item, deadline)
}

// TryPut appends item only if there is room right now.
func (q *Queue[T]) TryPut(item T) bool {
	return q.PutTimeout(item, 0) == nil
}

// Get removes and returns the head item, blocking while the queue is empty.
// Errors follow the same rules as Put.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	return q.get(ctx, time.Time{})
}

// GetTimeout is Get bounded by timeout. A zero timeout tries once without
// blocking; a negative timeout is a CONFIGURATION_ERROR.
func (q *Queue[T]) GetTimeout(timeout time.Duration) (T, error) {
	deadline, err := deadlineFor(timeout)
	if err != nil {
		var zero T
		return zero, err
	}
	return q.get(context.Background(), deadline)
}

// TryGet removes the head item only if one is available right now.
func (q *Queue[T]) TryGet() (T, bool) {
	v, err := q.GetTimeout(0)
	return v, err == nil
}

// Len returns the number of items currently queued.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the fixed capacity.
func (q *Queue[T]) Cap() int { return len(q.buf) }

// IsEmpty reports whether the queue holds no items.
func (q *Queue[T]) IsEmpty() bool { return q.Len() == 0 }

// IsFull reports whether the queue is at capacity.
func (q *Queue[T]) IsFull() bool { return q.Len() == len(q.buf) }

// Stats returns a snapshot of the queue's counters.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	s := q.stats
	s.Capacity = len(q.buf)
	s.Size = q.size
	return s
}

func (q *Queue[T]) put(ctx context.Context, item T, deadline time.Time) error {
	if ctx == nil {
		ctx = context.Background()
	}

	q.mu.Lock()
	waited, err := q.await(ctx, q.notFull, q.hasRoom, deadline, OpPut)
	if err != nil {
		if IsTimedOut(err) {
			q.stats.PutTimeouts++
		}
		q.mu.Unlock()
		q.notify(OpPut, waited, err, 0)
		return err
	}

	q.buf[(q.head+q.size)%len(q.buf)] = item
	q.size++
	q.stats.Puts++
	if q.size > q.stats.HighWater {
		q.stats.HighWater = q.size
	}
	size := q.size
	q.notEmpty.Signal()
	q.mu.Unlock()

	q.notify(OpPut, waited, nil, size)
	return nil
}

func (q *Queue[T]) get(ctx context.Context, deadline time.Time) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	q.mu.Lock()
	waited, err := q.await(ctx, q.notEmpty, q.hasItems, deadline, OpGet)
	if err != nil {
		if IsTimedOut(err) {
			q.stats.GetTimeouts++
		}
		q.mu.Unlock()
		q.notify(OpGet, waited, err, 0)
		var zero T
		return zero, err
	}

	var zero T
	item := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	q.stats.Gets++
	size := q.size
	q.notFull.Signal()
	q.mu.Unlock()

	q.notify(OpGet, waited, nil, size)
	return item, nil
}

func (q *Queue[T]) hasRoom() bool  { return q.size < len(q.buf) }
func (q *Queue[T]) hasItems() bool { return q.size > 0 }

// await parks on cond until ready holds, the deadline passes, or ctx ends.
// q.mu must be held on entry and is held on return. The predicate is checked
// before the deadline on every pass, so a waiter that was signalled always
// takes the slot or item it was woken for.
func (q *Queue[T]) await(ctx context.Context, cond *sync.Cond, ready func() bool, deadline time.Time, op string) (bool, error) {
	if ready() {
		return false, nil
	}
	hasDeadline := !deadline.IsZero()
	if hasDeadline && !time.Now().Before(deadline) {
		return false, timedOut(op)
	}
	if err := ctx.Err(); err != nil {
		return false, contextError(op, err)
	}

	if cond == q.notFull {
		q.stats.PutWaits++
	} else {
		q.stats.GetWaits++
	}

	// Timer and ctx callbacks take the lock before broadcasting, so they
	// cannot fire between the checks below and cond.Wait registering us.
	wake := func() {
		q.mu.Lock()
		cond.Broadcast()
		q.mu.Unlock()
	}
	if hasDeadline {
		timer := time.AfterFunc(time.Until(deadline), wake)
		defer timer.Stop()
	}
	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, wake)
		defer stop()
	}

	for !ready() {
		if hasDeadline && !time.Now().Before(deadline) {
			return true, timedOut(op)
		}
		if err := ctx.Err(); err != nil {
			return true, contextError(op, err)
		}
		cond.Wait()
	}
	return true, nil
}

func (q *Queue[T]) notify(op string, waited bool, err error, size int) {
	if waited {
		q.observer.QueueWaited(op)
	}
	switch {
	case err == nil:
		q.observer.QueueTransferred(op, size)
	case IsTimedOut(err):
		q.observer.QueueTimedOut(op)
	}
}

func deadlineFor(timeout time.Duration) (time.Time, error) {
	if timeout < 0 {
		return time.Time{}, errors.Configuration("timeout",
			fmt.Sprintf("timeout must not be negative (got: %s)", timeout))
	}
	return time.Now().Add(timeout), nil
}
