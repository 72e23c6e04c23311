package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Blocking/wait errors (retryable)
const (
	// ErrCodeTimeout indicates a bounded wait expired before its predicate held.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeCanceled indicates the caller's context was cancelled during a wait.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// Pipeline errors
const (
	// ErrCodeProducerFailure indicates the producer could not read or transform its source.
	ErrCodeProducerFailure ErrorCode = "PRODUCER_FAILURE"
	// ErrCodeConsumerFailure indicates the consumer could not deliver an item to its destination.
	ErrCodeConsumerFailure ErrorCode = "CONSUMER_FAILURE"
)

// Construction errors
const (
	// ErrCodeConfiguration indicates invalid construction parameters.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:         true,
	ErrCodeCanceled:        false,
	ErrCodeProducerFailure: false,
	ErrCodeConsumerFailure: false,
	ErrCodeConfiguration:   false,
	ErrCodeInternal:        false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// Process exit statuses reported by command-line tools.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitProducer      = 3
	ExitConsumer      = 4
	ExitTimeout       = 5
	ExitCanceled      = 130
)

var exitCodes = map[ErrorCode]int{
	ErrCodeTimeout:         ExitTimeout,
	ErrCodeCanceled:        ExitCanceled,
	ErrCodeProducerFailure: ExitProducer,
	ErrCodeConsumerFailure: ExitConsumer,
	ErrCodeConfiguration:   ExitConfiguration,
	ErrCodeInternal:        ExitFailure,
}

// ExitCodeFor returns the process exit status for an error code.
func ExitCodeFor(code ErrorCode) int {
	if c, ok := exitCodes[code]; ok {
		return c
	}
	return ExitFailure
}
