// Package pipeline moves a stream of values from a producer goroutine to a
// consumer goroutine through a bounded blocking queue.
//
// The producer pulls from an Iterator and puts each value on the queue,
// blocking while the queue is full. When the source is exhausted, fails, or
// the run is cancelled, the producer puts exactly one EndOfStream marker. The
// consumer takes values in order until it sees the marker, so a run always
// terminates even when the producer stops partway through.
//
// Values travel inside an Envelope, so zero values and nil pointers are
// ordinary payloads and can never be mistaken for the marker.
//
// # Usage
//
//	out, err := pipeline.RunPipeline(ctx, []int{1, 2, 3, 4, 5}, 2)
//
// The general form takes an Iterator and a Config:
//
//	src := pipeline.Map(pipeline.FromSlice(raw), parse)
//	res, err := pipeline.Run(ctx, src, pipeline.Config{
//	    Capacity:   3,
//	    PutTimeout: time.Second,
//	    PutRetries: 2,
//	}, pipeline.WithMetrics(metrics))
//
// Failures are *errors.AppError values: PRODUCER_FAILURE for source,
// transform and put-timeout failures, CONSUMER_FAILURE for get timeouts and
// sink errors, CANCELED or TIMEOUT when the caller's context ends. The
// Result keeps whatever the consumer received before the failure.
package pipeline
