package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Backoff retries an operation with doubling, capped and optionally jittered
// delays between attempts.
type Backoff struct {
	// Attempts is the total number of calls, including the first.
	Attempts int
	Base     time.Duration
	Max      time.Duration
	// Jitter adds up to this fraction of the delay at random.
	Jitter float64
	// Retryable reports whether err deserves another attempt. Nil retries everything.
	Retryable func(err error) bool
}

// reconnectBackoff paces attempts to reach a remote database.
func reconnectBackoff() *Backoff {
	return &Backoff{Attempts: 6, Base: 100 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.25}
}

// conflictBackoff resolves optimistic transaction conflicts: many short waits.
func conflictBackoff(retryable func(error) bool) *Backoff {
	return &Backoff{Attempts: 26, Base: time.Millisecond, Max: 50 * time.Millisecond, Jitter: 0.25, Retryable: retryable}
}

// Do calls fn until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx ends.
func (b *Backoff) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < b.Attempts; attempt++ {
		if attempt > 0 {
			wait := b.delay(attempt - 1)
			slog.DebugContext(ctx, "Retrying after failure", "event", "retry_attempt",
				"attempt", attempt+1, "max_attempts", b.Attempts, "delay_ms", wait.Milliseconds(), "error", err)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = fn(); err == nil {
			return nil
		}
		if b.Retryable != nil && !b.Retryable(err) {
			return err
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", b.Attempts, err)
}

// delay is Base doubled n times, capped at Max, plus jitter.
func (b *Backoff) delay(n int) time.Duration {
	d := b.Base
	for i := 0; i < n && d < b.Max; i++ {
		d *= 2
	}
	if d > b.Max {
		d = b.Max
	}
	if b.Jitter > 0 {
		d += time.Duration(rand.Float64() * b.Jitter * float64(d))
	}
	return d
}
