package ratelimiter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter() (*RateLimiter, *time.Time) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_Allow_BasicLimiting(t *testing.T) {
	rl, _ := newTestLimiter()
	defer rl.Stop()
	rl.SetPolicy("login", 3, time.Minute)

	assert.True(t, rl.Allow("login", "a@example.com"))
	assert.True(t, rl.Allow("login", "a@example.com"))
	assert.True(t, rl.Allow("login", "a@example.com"))
	assert.False(t, rl.Allow("login", "a@example.com"))

	assert.True(t, rl.Allow("login", "b@example.com"))
}

func TestRateLimiter_Allow_MissingPolicy(t *testing.T) {
	rl, _ := newTestLimiter()
	defer rl.Stop()

	assert.False(t, rl.Allow("unknown", "key"))
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl, now := newTestLimiter()
	defer rl.Stop()
	rl.SetPolicy("password_reset", 2, time.Hour)

	assert.True(t, rl.Allow("password_reset", "k"))
	*now = now.Add(30 * time.Minute)
	assert.True(t, rl.Allow("password_reset", "k"))
	assert.False(t, rl.Allow("password_reset", "k"))

	assert.Equal(t, 30*time.Minute, rl.RetryAfter("password_reset", "k"))

	*now = now.Add(31 * time.Minute)
	assert.True(t, rl.Allow("password_reset", "k"))
}

func TestRateLimiter_NamespacesAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter()
	defer rl.Stop()
	rl.SetPolicy("login", 1, time.Minute)
	rl.SetPolicy("password_reset", 1, time.Minute)

	assert.True(t, rl.Allow("login", "k"))
	assert.False(t, rl.Allow("login", "k"))
	assert.True(t, rl.Allow("password_reset", "k"))
}

func TestRateLimiter_Reset(t *testing.T) {
	rl, _ := newTestLimiter()
	defer rl.Stop()
	rl.SetPolicy("login", 1, time.Minute)

	assert.True(t, rl.Allow("login", "k"))
	assert.False(t, rl.Allow("login", "k"))

	rl.Reset("login", "k")
	assert.True(t, rl.Allow("login", "k"))
}

func TestRateLimiter_RetryAfter_NoAttempts(t *testing.T) {
	rl, _ := newTestLimiter()
	defer rl.Stop()
	rl.SetPolicy("login", 1, time.Minute)

	assert.Equal(t, time.Duration(0), rl.RetryAfter("login", "k"))
	assert.Equal(t, time.Duration(0), rl.RetryAfter("nope", "k"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl, now := newTestLimiter()
	defer rl.Stop()
	rl.SetPolicy("login", 5, time.Minute)

	rl.Allow("login", "old")
	*now = now.Add(2 * time.Minute)
	rl.Allow("login", "fresh")

	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.attempts, 1)
	_, ok := rl.attempts[bucketKey{"login", "fresh"}]
	assert.True(t, ok)
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()
	rl.SetPolicy("login", 50, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("login", "shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter()
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
