package pipeline

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/boundq/errors"
)

// interrupted reports a role stopped by its run context: TIMEOUT when the
// context deadline passed, CANCELED otherwise.
func interrupted(role string, ctxErr error) *errors.AppError {
	if stderrors.Is(ctxErr, context.DeadlineExceeded) {
		return errors.Timeout(role).WithCause(ctxErr)
	}
	return errors.Canceled(role, ctxErr)
}
