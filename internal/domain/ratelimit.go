package domain

import "time"

// RateLimitCounter is the persisted state of one sliding fixed window.
// Invariant: Count never exceeds the rule's max within
// [WindowStart, WindowStart+Window).
type RateLimitCounter struct {
	UserID      string
	Key         string
	WindowStart time.Time
	Count       int64
}

// RateLimitRule is one window limit applied to an operation key.
type RateLimitRule struct {
	Key    string
	Max    int64
	Window time.Duration
}

// RateLimitResult is the outcome of an admission check. A rejection is
// not an error: it carries a deterministic retry time instead.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RetryAfterFrom computes the remaining window time for a denied hit,
// clamped into (0, window].
func RetryAfterFrom(windowStart time.Time, window time.Duration, now time.Time) time.Duration {
	remaining := windowStart.Add(window).Sub(now)
	if remaining <= 0 {
		return time.Second
	}
	if remaining > window {
		return window
	}
	return remaining
}
