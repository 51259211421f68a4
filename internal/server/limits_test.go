package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionLimitsGlobalCap(t *testing.T) {
	limits := NewConnectionLimits(2, 10)

	ok, _ := limits.Acquire("1.1.1.1")
	assert.True(t, ok)
	ok, _ = limits.Acquire("2.2.2.2")
	assert.True(t, ok)

	ok, reason := limits.Acquire("3.3.3.3")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonGlobal, reason)

	limits.Release("1.1.1.1")
	ok, _ = limits.Acquire("3.3.3.3")
	assert.True(t, ok)
}

func TestConnectionLimitsPerIPCap(t *testing.T) {
	limits := NewConnectionLimits(100, 2)

	ok, _ := limits.Acquire("1.1.1.1")
	assert.True(t, ok)
	ok, _ = limits.Acquire("1.1.1.1")
	assert.True(t, ok)

	ok, reason := limits.Acquire("1.1.1.1")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonPerIP, reason)

	// A per-IP rejection must not leak a global slot.
	assert.Equal(t, int64(2), limits.Current())

	// Other IPs are unaffected.
	ok, _ = limits.Acquire("2.2.2.2")
	assert.True(t, ok)
}

func TestConnectionLimitsReleaseCleansUpIP(t *testing.T) {
	limits := NewConnectionLimits(100, 5)

	ok, _ := limits.Acquire("1.1.1.1")
	assert.True(t, ok)
	assert.Equal(t, 1, limits.CountFor("1.1.1.1"))

	limits.Release("1.1.1.1")
	assert.Equal(t, 0, limits.CountFor("1.1.1.1"))
	assert.Equal(t, int64(0), limits.Current())
}

func TestConnectionLimitsReleaseUnknownIPIsSafe(t *testing.T) {
	limits := NewConnectionLimits(100, 5)

	ok, _ := limits.Acquire("1.1.1.1")
	assert.True(t, ok)

	limits.Release("9.9.9.9")
	assert.Equal(t, 1, limits.CountFor("1.1.1.1"))
}

func TestSubmissionRateLimiterBurstThenThrottle(t *testing.T) {
	limiter := NewSubmissionRateLimiter(0.001, 3)

	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.False(t, limiter.Allow("1.1.1.1"))

	// Each IP gets its own bucket.
	assert.True(t, limiter.Allow("2.2.2.2"))
	assert.Equal(t, 2, limiter.ActiveLimiters())
}
