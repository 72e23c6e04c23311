package pipeline

import (
	"time"

	"github.com/kbukum/boundq/validation"
)

// DefaultCapacity is the queue capacity used by DefaultConfig.
const DefaultCapacity = 10

// DefaultRetryBackoff is the wait before the first put retry.
const DefaultRetryBackoff = 10 * time.Millisecond

// Config controls a pipeline run.
type Config struct {
	// Capacity bounds the queue between producer and consumer.
	Capacity int `yaml:"capacity" mapstructure:"capacity" validate:"gt=0"`
	// PutTimeout bounds each producer put. Zero blocks until the run ends.
	PutTimeout time.Duration `yaml:"put_timeout" mapstructure:"put_timeout" validate:"gte=0"`
	// GetTimeout bounds each consumer get. Zero blocks until the run ends.
	GetTimeout time.Duration `yaml:"get_timeout" mapstructure:"get_timeout" validate:"gte=0"`
	// PutRetries is the number of extra attempts after a put timeout.
	PutRetries int `yaml:"put_retries" mapstructure:"put_retries" validate:"gte=0,lte=100"`
	// RetryBackoff is the initial delay between put retries. Zero uses
	// DefaultRetryBackoff.
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff" validate:"gte=0"`
	// Rate limits producer emission in items per second. Zero is unlimited.
	Rate float64 `yaml:"rate" mapstructure:"rate" validate:"gte=0"`
	// Burst is the producer token bucket size when Rate is set.
	Burst int `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// DefaultConfig returns a config with DefaultCapacity and no timeouts.
func DefaultConfig() Config {
	return Config{Capacity: DefaultCapacity, RetryBackoff: DefaultRetryBackoff}
}

func (c Config) retryBackoff() time.Duration {
	if c.RetryBackoff == 0 {
		return DefaultRetryBackoff
	}
	return c.RetryBackoff
}

// Validate reports invalid fields as a CONFIGURATION_ERROR.
func (c Config) Validate() error {
	return validation.Validate(c)
}
