package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowsUpToCapacity(t *testing.T) {
	l := New(Config{Capacity: 3, RefillPerSecond: 1})

	for i := 0; i < 3; i++ {
		status := l.Allow("caller-1")
		require.True(t, status.Allowed, "request %d should be allowed", i)
	}

	status := l.Allow("caller-1")
	assert.False(t, status.Allowed)
}

func TestLimiter_RetryAfterFormula(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(Config{Capacity: 1, RefillPerSecond: 0.5})
	l.now = func() time.Time { return fixed }

	require.True(t, l.Allow("k").Allowed)
	status := l.Allow("k")
	require.False(t, status.Allowed)
	// tokens remaining is 0, refill is 0.5/s -> ceil((1-0)/0.5) = 2
	assert.Equal(t, 2, status.RetryAfterSecond)
}

func TestLimiter_RefillOverTime(t *testing.T) {
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(Config{Capacity: 1, RefillPerSecond: 1})
	l.now = func() time.Time { return current }

	require.True(t, l.Allow("k").Allowed)
	require.False(t, l.Allow("k").Allowed)

	current = current.Add(1100 * time.Millisecond)
	assert.True(t, l.Allow("k").Allowed)
}

func TestLimiter_IndependentKeys(t *testing.T) {
	l := New(Config{Capacity: 1, RefillPerSecond: 1})

	require.True(t, l.Allow("a").Allowed)
	require.False(t, l.Allow("a").Allowed)
	assert.True(t, l.Allow("b").Allowed)
}

func TestLimiter_ZeroCapacityIsUnlimited(t *testing.T) {
	l := New(Config{})
	for i := 0; i < 50; i++ {
		assert.True(t, l.Allow("x").Allowed)
	}
}

func TestLimiter_ResetAndResetAll(t *testing.T) {
	l := New(Config{Capacity: 1, RefillPerSecond: 0.01})

	require.True(t, l.Allow("a").Allowed)
	require.False(t, l.Allow("a").Allowed)
	l.Reset("a")
	assert.True(t, l.Allow("a").Allowed)

	require.False(t, l.Allow("a").Allowed)
	require.True(t, l.Allow("b").Allowed)
	l.ResetAll()
	assert.True(t, l.Allow("a").Allowed)
	assert.True(t, l.Allow("b").Allowed)
}
