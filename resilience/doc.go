// Package resilience holds the two recovery tools the pipeline uses:
// Retry re-runs an operation that failed with a retryable error, and
// RateLimiter paces a producer with a token bucket.
//
//	err := resilience.RetryFunc(ctx, resilience.RetryConfig{MaxAttempts: 3}, func() error {
//	    return q.PutTimeout(item, time.Second)
//	})
package resilience
