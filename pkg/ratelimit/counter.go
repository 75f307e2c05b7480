package ratelimit

import (
	"sync"
	"time"
)

// RequestCounter is a sliding-window request counter keyed by client.
// Entries older than the window are pruned on every call, so memory is
// bounded by the number of requests admitted during one window.
type RequestCounter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	requests map[string][]time.Time
}

// NewRequestCounter allows max requests per window for each key.
func NewRequestCounter(max int, window time.Duration) *RequestCounter {
	if window <= 0 {
		window = time.Minute
	}
	return &RequestCounter{
		max:      max,
		window:   window,
		now:      time.Now,
		requests: make(map[string][]time.Time),
	}
}

// Max returns the configured request ceiling
func (c *RequestCounter) Max() int {
	return c.max
}

// Allow records a request for key and reports whether it fits in the window.
// A rejected request is not recorded.
func (c *RequestCounter) Allow(key string) bool {
	if c.max <= 0 {
		return true
	}

	now := c.now()
	cutoff := now.Add(-c.window)

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.requests[key][:0]
	for _, t := range c.requests[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= c.max {
		c.requests[key] = kept
		return false
	}

	c.requests[key] = append(kept, now)
	return true
}
