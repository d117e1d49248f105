package ratelimiter

import (
	"sync"
	"time"
)

// Policy is the number of attempts allowed per sliding window
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

type bucketKey struct {
	namespace string
	key       string
}

// RateLimiter is an in-memory sliding window limiter. Policies are set per
// namespace ("login", "password_reset") and attempts are tracked per key
// within a namespace.
//
//	rl := ratelimiter.NewRateLimiter()
//	rl.SetPolicy("login", 10, 15*time.Minute)
//	if !rl.Allow("login", email+"|"+ip) { ... 429 ... }
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[bucketKey][]time.Time
	policies map[string]Policy
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		attempts: make(map[bucketKey][]time.Time),
		policies: make(map[string]Policy),
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go rl.sweepLoop(time.Minute)

	return rl
}

func (rl *RateLimiter) SetPolicy(namespace string, maxAttempts int, window time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.policies[namespace] = Policy{MaxAttempts: maxAttempts, Window: window}
}

// Allow records an attempt and reports whether it fits the namespace policy.
// Namespaces without a policy are denied.
func (rl *RateLimiter) Allow(namespace, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, ok := rl.policies[namespace]
	if !ok {
		return false
	}

	now := rl.now()
	k := bucketKey{namespace, key}
	recent := prune(rl.attempts[k], now.Add(-policy.Window))

	if len(recent) >= policy.MaxAttempts {
		rl.attempts[k] = recent
		return false
	}

	rl.attempts[k] = append(recent, now)
	return true
}

// Reset forgets the attempts of key, e.g. after a successful login
func (rl *RateLimiter) Reset(namespace, key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.attempts, bucketKey{namespace, key})
}

// RetryAfter returns how long until the oldest attempt in the window expires
func (rl *RateLimiter) RetryAfter(namespace, key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, ok := rl.policies[namespace]
	if !ok {
		return 0
	}

	now := rl.now()
	recent := prune(rl.attempts[bucketKey{namespace, key}], now.Add(-policy.Window))
	if len(recent) == 0 {
		return 0
	}

	remaining := recent[0].Add(policy.Window).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Stop ends the background sweeper. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// prune keeps attempts newer than cutoff; attempts are in insertion order
func prune(attempts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(attempts) && !attempts[i].After(cutoff) {
		i++
	}
	return attempts[i:]
}

func (rl *RateLimiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for k, attempts := range rl.attempts {
		policy, ok := rl.policies[k.namespace]
		if !ok || len(prune(attempts, now.Add(-policy.Window))) == 0 {
			delete(rl.attempts, k)
		}
	}
}
