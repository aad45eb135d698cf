// Package ratelimit bounds per-user request and message rates with a
// sliding window, so one chatty client cannot drown the fan-out.
package ratelimit

import (
	"sync"
	"time"
)

// Result reports a limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter tracks request timestamps per key in a sliding window. The window
// slides continuously, so bursts straddling a boundary cannot double the
// effective limit.
type Limiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	buckets map[string][]time.Time
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string][]time.Time),
	}
}

// Allow checks whether key may proceed and, if so, counts the request.
func (l *Limiter) Allow(key string) Result {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamps := trim(l.buckets[key], now.Add(-l.window))
	if len(timestamps) >= l.limit {
		l.buckets[key] = timestamps
		return Result{Allowed: false, ResetAt: timestamps[0].Add(l.window)}
	}

	timestamps = append(timestamps, now)
	l.buckets[key] = timestamps
	return Result{
		Allowed:   true,
		Remaining: l.limit - len(timestamps),
		ResetAt:   timestamps[0].Add(l.window),
	}
}

// Reset clears the window for a key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func trim(timestamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(timestamps); i++ {
		if timestamps[i].After(cutoff) {
			break
		}
	}
	return timestamps[i:]
}
