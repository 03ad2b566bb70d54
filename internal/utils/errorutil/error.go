package errorutil

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// HandleError is a utility function for handling errors with logging
func HandleError(log zerolog.Logger, err error, msg string) {
	if err != nil {
		log.Error().Err(err).Msg(msg)
	}
}

// HandleContextError logs the context error instead of err when ctx has
// already expired, so timeouts read as timeouts.
func HandleContextError(log zerolog.Logger, ctx context.Context, err error, timeoutMsg, errorMsg string) {
	if err != nil {
		select {
		case <-ctx.Done():
			log.Error().Err(ctx.Err()).Msg(timeoutMsg)
		default:
			log.Error().Err(err).Msg(errorMsg)
		}
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
