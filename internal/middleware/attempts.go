package middleware

import (
	"log/slog"
	"sync"
	"time"
)

// AttemptLimiter tracks failed attempts per key inside a sliding window.
// Once a key collects max attempts within the window, further attempts are
// refused until the window expires. Keys are caller-defined: the login
// flow uses account emails, registration uses client IPs.
type AttemptLimiter struct {
	attempts map[string]*attemptWindow
	mu       sync.RWMutex
	max      int
	window   time.Duration
}

// attemptWindow tracks attempts for one key.
type attemptWindow struct {
	count int
	first time.Time
}

// NewAttemptLimiter creates an attempt limiter allowing max attempts per window.
func NewAttemptLimiter(max int, window time.Duration) *AttemptLimiter {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}

	al := &AttemptLimiter{
		attempts: make(map[string]*attemptWindow),
		max:      max,
		window:   window,
	}

	go al.cleanup()

	return al
}

// TooMany reports whether the key has exhausted its attempts.
// Returns the time remaining until the window resets.
func (al *AttemptLimiter) TooMany(key string) (bool, time.Duration) {
	al.mu.RLock()
	aw, exists := al.attempts[key]
	var count int
	var first time.Time
	if exists {
		count = aw.count
		first = aw.first
	}
	al.mu.RUnlock()

	if !exists {
		return false, 0
	}

	resetAt := first.Add(al.window)
	if count >= al.max && time.Now().Before(resetAt) {
		return true, time.Until(resetAt)
	}

	return false, 0
}

// Record registers a failed attempt for the key.
// Returns the number of attempts remaining before the key is refused.
func (al *AttemptLimiter) Record(key string) int {
	al.mu.Lock()
	defer al.mu.Unlock()

	now := time.Now()
	aw, exists := al.attempts[key]

	if !exists || now.Sub(aw.first) > al.window {
		al.attempts[key] = &attemptWindow{count: 1, first: now}
		return al.max - 1
	}

	aw.count++
	slog.Debug("failed attempt recorded", "key", key, "count", aw.count)

	remaining := al.max - aw.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Reset clears attempt tracking for the key. Called after success so a
// legitimate user never pays for their own typos across sessions.
func (al *AttemptLimiter) Reset(key string) {
	al.mu.Lock()
	defer al.mu.Unlock()

	delete(al.attempts, key)
}

// cleanup periodically removes expired windows.
func (al *AttemptLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		al.mu.Lock()
		for key, aw := range al.attempts {
			if now.Sub(aw.first) > al.window {
				delete(al.attempts, key)
			}
		}
		al.mu.Unlock()
	}
}
