package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(retryable func(error) bool) *Backoff {
	return &Backoff{Attempts: 4, Base: time.Millisecond, Max: 2 * time.Millisecond, Retryable: retryable}
}

func TestBackoff_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := fastBackoff(nil).Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestBackoff_GivesUp(t *testing.T) {
	boom := errors.New("boom")
	attempts := 0
	err := fastBackoff(nil).Do(context.Background(), func() error {
		attempts++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, attempts)
	assert.Contains(t, err.Error(), "after 4 attempts")
}

func TestBackoff_NonRetryableReturnsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	attempts := 0
	err := fastBackoff(func(err error) bool { return false }).Do(context.Background(), func() error {
		attempts++
		return fatal
	})
	assert.Same(t, fatal, err)
	assert.Equal(t, 1, attempts)
}

func TestBackoff_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := fastBackoff(nil).Do(ctx, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestBackoff_Delay(t *testing.T) {
	b := &Backoff{Base: 10 * time.Millisecond, Max: 50 * time.Millisecond}

	assert.Equal(t, 10*time.Millisecond, b.delay(0))
	assert.Equal(t, 20*time.Millisecond, b.delay(1))
	assert.Equal(t, 40*time.Millisecond, b.delay(2))
	assert.Equal(t, 50*time.Millisecond, b.delay(5), "delay is capped")
	assert.Equal(t, 50*time.Millisecond, b.delay(500), "large attempts do not overflow")

	b.Jitter = 0.25
	for i := 0; i < 20; i++ {
		d := b.delay(1)
		assert.GreaterOrEqual(t, d, 20*time.Millisecond)
		assert.LessOrEqual(t, d, 25*time.Millisecond)
	}
}
