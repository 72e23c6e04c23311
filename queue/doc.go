// Package queue provides a bounded, blocking FIFO queue built on the classic
// monitor pattern: one mutex guards the buffer and two condition variables
// (not-full and not-empty) park callers until the state they need holds.
//
// Blocking calls come in three flavours:
//
//   - Put / Get wait until the queue is ready or ctx ends.
//   - PutTimeout / GetTimeout wait at most the given duration; zero means try
//     once without blocking.
//   - TryPut / TryGet never block.
//
// A wait that runs out of time returns an error matching ErrTimedOut and
// leaves the queue untouched. Waiters always re-check their predicate after
// waking, so spurious or stolen wakeups are harmless.
//
// # Usage
//
//	q, err := queue.New[int](2)
//	if err != nil {
//	    return err
//	}
//	_ = q.Put(ctx, 1)
//	v, err := q.GetTimeout(50 * time.Millisecond)
//	if queue.IsTimedOut(err) {
//	    // nothing arrived in time
//	}
package queue
