package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleepContext(t *testing.T) {
	t.Run("returns after duration", func(t *testing.T) {
		start := time.Now()
		assert.NoError(t, SleepContext(t.Context(), 10*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("zero duration returns immediately", func(t *testing.T) {
		assert.NoError(t, SleepContext(t.Context(), 0))
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	})
}

func TestJitter(t *testing.T) {
	lo, hi := 10*time.Second, 20*time.Second
	for range 200 {
		d := Jitter(lo, hi)
		assert.GreaterOrEqual(t, d, lo)
		assert.LessOrEqual(t, d, hi)
	}
	assert.Equal(t, lo, Jitter(lo, lo))
	assert.Equal(t, lo, Jitter(lo, time.Second))
}
