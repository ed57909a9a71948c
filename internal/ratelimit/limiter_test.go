package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsUpToMax(t *testing.T) {
	l := New(5, time.Minute)

	for i := 0; i < 5; i++ {
		res := l.Check("user-1")
		assert.True(t, res.Allowed, "call %d should be allowed", i+1)
		assert.Zero(t, res.RetryAfter)
	}

	res := l.Check("user-1")
	assert.False(t, res.Allowed, "6th call within the window must be rejected")
	assert.Greater(t, res.RetryAfter, 0)
	assert.LessOrEqual(t, res.RetryAfter, 60)
}

func TestLimiterWindowReset(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	l := New(5, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		require.True(t, l.Check("user-1").Allowed)
	}
	require.False(t, l.Check("user-1").Allowed)

	// first call after the window elapses starts a fresh window
	now = now.Add(61 * time.Second)
	res := l.Check("user-1")
	assert.True(t, res.Allowed)

	// and the fresh window counts from 1 again
	for i := 0; i < 4; i++ {
		assert.True(t, l.Check("user-1").Allowed)
	}
	assert.False(t, l.Check("user-1").Allowed)
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	assert.True(t, l.Check("a").Allowed)
	assert.False(t, l.Check("a").Allowed)
	assert.True(t, l.Check("b").Allowed)
}

func TestLimiterRetryAfterShrinks(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	l := New(1, time.Minute)
	l.now = func() time.Time { return now }

	require.True(t, l.Check("a").Allowed)

	res := l.Check("a")
	require.False(t, res.Allowed)
	assert.Equal(t, 60, res.RetryAfter)

	now = now.Add(59 * time.Second)
	res = l.Check("a")
	require.False(t, res.Allowed)
	assert.Equal(t, 1, res.RetryAfter)
}
