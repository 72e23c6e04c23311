package resilience

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/kbukum/boundq/errors"
	"github.com/kbukum/boundq/validation"
)

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	// Name identifies the limiter in logs.
	Name string
	// Rate is the number of tokens added per second.
	Rate float64
	// Burst is the bucket size. Zero means max(1, Rate).
	Burst int
}

// RateLimiter is a named token bucket that reports waits as AppErrors.
type RateLimiter struct {
	config  RateLimiterConfig
	limiter *rate.Limiter
}

// NewRateLimiter validates config and returns a full bucket.
func NewRateLimiter(config RateLimiterConfig) (*RateLimiter, error) {
	v := validation.New()
	v.Custom(config.Rate > 0, "rate", fmt.Sprintf("must be greater than 0 (got: %g)", config.Rate)).
		Min("burst", config.Burst, 0)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if config.Burst == 0 {
		config.Burst = max(1, int(config.Rate))
	}
	return &RateLimiter{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
	}, nil
}

// Allow takes a token if one is available now.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Wait blocks until a token is available. It returns CANCELED when ctx is
// cancelled, and TIMEOUT when ctx's deadline passes or would pass before the
// token is due. A failed wait gives its reservation back.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	err := rl.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr == context.Canceled {
		return errors.Canceled("rate_limiter.wait", ctxErr)
	}
	return errors.Timeout("rate_limiter.wait").WithCause(err)
}

// Tokens returns the number of tokens available now.
func (rl *RateLimiter) Tokens() float64 { return rl.limiter.Tokens() }

// Rate returns tokens per second.
func (rl *RateLimiter) Rate() float64 { return rl.config.Rate }

// Burst returns the bucket size.
func (rl *RateLimiter) Burst() int { return rl.config.Burst }

// Name returns the configured name.
func (rl *RateLimiter) Name() string { return rl.config.Name }
