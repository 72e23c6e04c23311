// Package errors provides unified error handling for boundq.
// It implements structured error types with error codes, process exit status
// mapping, and retryable detection.
package errors
