package pagesmith

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewRateLimiter(2, 200*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.10"

	assert.True(t, limiter.Allow(ip), "first attempt")
	assert.True(t, limiter.Allow(ip), "second attempt")
	assert.False(t, limiter.Allow(ip), "third attempt must be blocked")
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewRateLimiter(1, 150*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.20"

	assert.True(t, limiter.Allow(ip))
	assert.False(t, limiter.Allow(ip))

	time.Sleep(200 * time.Millisecond)
	assert.True(t, limiter.Allow(ip), "attempt after window must be allowed")
}

func TestRateLimiterIsPerIP(t *testing.T) {
	limiter := NewRateLimiter(1, 200*time.Millisecond)
	defer limiter.Stop()

	assert.True(t, limiter.Allow("203.0.113.30"))
	assert.True(t, limiter.Allow("203.0.113.31"), "second ip is independent")
	assert.False(t, limiter.Allow("203.0.113.30"))
}

func TestRateLimiterCheckDoesNotRecord(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	ip := "203.0.113.40"

	assert.True(t, limiter.Check(ip))
	assert.True(t, limiter.Check(ip))
	limiter.Record(ip)
	assert.False(t, limiter.Check(ip))
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	limiter := NewRateLimiter(1, time.Millisecond)
	limiter.Stop()
	assert.NoError(t, limiter.Close())
}
