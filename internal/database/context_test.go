package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeouts(t *testing.T) {
	timeouts := Timeouts{Query: time.Second, Execute: 2 * time.Second}

	ctx, cancel := timeouts.query(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)

	override := context.WithValue(context.Background(), ContextKeyExecuteTimeout, 50*time.Millisecond)
	ctx, cancel = timeouts.execute(override)
	defer cancel()
	deadline, ok = ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 40*time.Millisecond)
}

func TestTimeouts_ZeroMeansNoDeadline(t *testing.T) {
	ctx, cancel := Timeouts{}.query(context.Background())
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)
}
