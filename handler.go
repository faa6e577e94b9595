package fairy

import (
	"context"

	"github.com/fairyq/fairy/internal/herr"
)

// HandlerFunc processes one task's ordered user arguments (§4.3, §6). A nil
// error means success. Any other error drives the failure policy of §4.3,
// §7: return a *HandlerError via Block or BlockAfterRetry to choose a
// directive, or a plain error for the default retry-then-archive behavior.
type HandlerFunc func(ctx context.Context, args []any) error

// HandlerError is the structured error a handler returns to choose a
// failure directive (§6 "error object may carry fields"). Use Block or
// BlockAfterRetry to construct one; a plain error is treated as the
// "other/absent" directive.
type HandlerError = herr.HandlerError

// Block returns a *HandlerError that archives the task and blocks its
// group immediately, with no retries (§4.3 failure table, "block").
func Block(message string) *HandlerError {
	return &HandlerError{Message: message, Do: herr.Block}
}

// BlockAfterRetry returns a *HandlerError that retries up to the queue's
// retry_limit, then archives and blocks the group (§4.3 failure table,
// "block-after-retry").
func BlockAfterRetry(message string) *HandlerError {
	return &HandlerError{Message: message, Do: herr.BlockAfterRetry}
}
