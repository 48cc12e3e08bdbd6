package hardening

import (
	"sync"
	"time"
)

// Default rate limiter settings.
const (
	DefaultRateLimit  = 20
	DefaultRateWindow = time.Minute
)

// RateLimiter allows at most maxRequests events per sliding window.
// Timestamps outside the window are pruned on every call, so memory
// stays bounded by maxRequests.
type RateLimiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	timestamps  []time.Time
	rejected    int64

	// now is swappable in tests.
	now func() time.Time
}

// NewRateLimiter creates a rate limiter allowing maxRequests events per
// window. Non-positive arguments fall back to the defaults.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Allow records an event and reports whether it is within the limit.
// A rejected event is not recorded, so a burst of rejections does not
// extend the lockout.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.prune(now)

	if len(rl.timestamps) >= rl.maxRequests {
		rl.rejected++
		return false
	}
	rl.timestamps = append(rl.timestamps, now)
	return true
}

// Remaining returns how many events the current window still admits.
func (rl *RateLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.prune(rl.now())
	return rl.maxRequests - len(rl.timestamps)
}

// RetryAfter returns how long until the next event would be admitted.
// Zero means an event is admissible now.
func (rl *RateLimiter) RetryAfter() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.prune(now)

	if len(rl.timestamps) < rl.maxRequests {
		return 0
	}
	// The oldest recorded event ages out first.
	return rl.timestamps[0].Add(rl.window).Sub(now)
}

// Rejected returns the total number of events refused so far.
func (rl *RateLimiter) Rejected() int64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.rejected
}

// Reset discards all recorded events.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.timestamps = rl.timestamps[:0]
}

// prune drops timestamps older than the window. Callers must hold mu.
func (rl *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rl.window)
	keep := 0
	for keep < len(rl.timestamps) && !rl.timestamps[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		rl.timestamps = append(rl.timestamps[:0], rl.timestamps[keep:]...)
	}
}
