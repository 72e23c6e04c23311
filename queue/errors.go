package queue

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/boundq/errors"
)

// Operation names reported in error details and to observers.
const (
	OpPut = "queue.put"
	OpGet = "queue.get"
)

var (
	// ErrTimedOut matches, through errors.Is, every TIMEOUT AppError
	// whatever raised it. Use IsTimedOut to match queue timeouts only.
	ErrTimedOut = errors.Timeout("queue")
	// ErrCanceled matches every CANCELED AppError.
	ErrCanceled = errors.Canceled("queue", context.Canceled)
)

// IsTimedOut reports whether err, or any error it wraps or joins, is a
// TIMEOUT raised by a queue operation. TIMEOUT errors from other sources,
// such as a run whose context deadline passed, do not match.
func IsTimedOut(err error) bool {
	return fromQueue(err, errors.ErrCodeTimeout)
}

// IsCanceled reports whether err, or any error it wraps or joins, is a
// queue wait abandoned because its context was cancelled.
func IsCanceled(err error) bool {
	return fromQueue(err, errors.ErrCodeCanceled)
}

func fromQueue(err error, code errors.ErrorCode) bool {
	for err != nil {
		if ae, ok := err.(*errors.AppError); ok && ae.Code == code {
			switch ae.Details["operation"] {
			case OpPut, OpGet:
				return true
			}
		}
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				if fromQueue(e, code) {
					return true
				}
			}
			return false
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		default:
			return false
		}
	}
	return false
}

func timedOut(op string) error {
	return errors.Timeout(op)
}

// contextError maps a finished context to TIMEOUT or CANCELED, keeping the
// context error as the cause so errors.Is(err, context.DeadlineExceeded) works.
func contextError(op string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout(op).WithCause(err)
	}
	return errors.Canceled(op, err)
}
