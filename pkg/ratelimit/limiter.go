package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// MultiLimiter manages token-bucket limiters for different upstream services
type MultiLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates a new multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// AddLimiter adds (or replaces) the limiter for a service.
// requestsPerSecond is the sustained rate, burst the bucket size.
func (m *MultiLimiter) AddLimiter(name string, requestsPerSecond float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Wait blocks until the limiter allows an event
func (m *MultiLimiter) Wait(ctx context.Context, name string) error {
	limiter, err := m.get(name)
	if err != nil {
		return err
	}
	return limiter.Wait(ctx)
}

// Has reports whether a limiter with the given name is registered
func (m *MultiLimiter) Has(name string) bool {
	_, err := m.get(name)
	return err == nil
}

func (m *MultiLimiter) get(name string) (*rate.Limiter, error) {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("limiter %s not found", name)
	}
	return limiter, nil
}

// Limiter names
const (
	LimiterYouTube = "youtube"
	LimiterLLM     = "llm"
	LimiterPacing  = "pacing"
)

// Limits configures NewLimiter
type Limits struct {
	YouTubeRequestsPerSecond float64
	LLMRequestsPerMinute     int
	// PacingPerSecond is the rate of the batch pacing bucket (one video per token).
	PacingPerSecond float64
}

// NewLimiter creates a limiter set from explicit limits. Zero fields fall
// back to 5 YouTube requests per second, 20 LLM requests per minute and one
// paced video per second.
func NewLimiter(l Limits) *MultiLimiter {
	if l.YouTubeRequestsPerSecond <= 0 {
		l.YouTubeRequestsPerSecond = 5
	}
	if l.LLMRequestsPerMinute <= 0 {
		l.LLMRequestsPerMinute = 20
	}
	if l.PacingPerSecond <= 0 {
		l.PacingPerSecond = 1
	}

	m := NewMultiLimiter()
	m.AddLimiter(LimiterYouTube, l.YouTubeRequestsPerSecond, 5)
	m.AddLimiter(LimiterLLM, float64(l.LLMRequestsPerMinute)/60, 2)
	// burst 1 so consecutive videos are spaced by a full interval
	m.AddLimiter(LimiterPacing, l.PacingPerSecond, 1)
	return m
}
