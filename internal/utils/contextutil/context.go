package contextutil

import (
	"context"
	"time"
)

const (
	// DefaultTimeout is the default timeout for operations
	DefaultTimeout = 30 * time.Second
	// LongTimeout bounds waiting for a transaction to be mined
	LongTimeout = 5 * time.Minute
)

// WithTimeout derives a context with timeout, or DefaultTimeout when timeout
// is not positive.
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(parent, timeout)
}

// WithLongTimeout creates a context with LongTimeout
func WithLongTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, LongTimeout)
}
