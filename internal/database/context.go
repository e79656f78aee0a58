package database

import (
	"context"
	"time"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// ContextKeyQueryTimeout allows overriding the default timeout for read queries.
	ContextKeyQueryTimeout ContextKey = "db_query_timeout"
	// ContextKeyExecuteTimeout allows overriding the default timeout for write operations.
	ContextKeyExecuteTimeout ContextKey = "db_execute_timeout"
)

// Timeouts bounds every store call.
type Timeouts struct {
	Query   time.Duration
	Execute time.Duration
}

// DefaultTimeouts is used when a store is opened without explicit timeouts.
var DefaultTimeouts = Timeouts{Query: 5 * time.Second, Execute: 10 * time.Second}

func (t Timeouts) query(ctx context.Context) (context.Context, context.CancelFunc) {
	return getTimeoutFromContext(ctx, t.Query, ContextKeyQueryTimeout)
}

func (t Timeouts) execute(ctx context.Context) (context.Context, context.CancelFunc) {
	return getTimeoutFromContext(ctx, t.Execute, ContextKeyExecuteTimeout)
}

// getTimeoutFromContext is a helper that retrieves a timeout duration from the context
// or returns a default value. It also returns a new context with the timeout applied
// and its corresponding cancellation function.
func getTimeoutFromContext(ctx context.Context, defaultTimeout time.Duration, key ContextKey) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := defaultTimeout
	if v, ok := ctx.Value(key).(time.Duration); ok && v > 0 {
		timeout = v
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
