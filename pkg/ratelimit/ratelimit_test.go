package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestRequestCounterWindow(t *testing.T) {
	c := NewRequestCounter(2, time.Minute)
	now := time.Date(2025, 7, 19, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if !c.Allow("global") || !c.Allow("global") {
		t.Fatal("expected first two requests to be allowed")
	}
	if c.Allow("global") {
		t.Error("expected third request in the window to be rejected")
	}
	if !c.Allow("other") {
		t.Error("expected a different key to have its own window")
	}

	now = now.Add(61 * time.Second)
	if !c.Allow("global") {
		t.Error("expected request to be allowed after the window passed")
	}
}

func TestRequestCounterDisabled(t *testing.T) {
	c := NewRequestCounter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if !c.Allow("global") {
			t.Fatalf("request %d rejected with limit disabled", i)
		}
	}
}

func TestMultiLimiterUnknown(t *testing.T) {
	m := NewMultiLimiter()
	if err := m.Wait(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown limiter")
	}
	if m.Has("missing") {
		t.Error("expected Has to be false for unknown limiter")
	}
}

func TestNewLimiterDefaults(t *testing.T) {
	m := NewLimiter(Limits{})
	for _, name := range []string{LimiterYouTube, LimiterLLM, LimiterPacing} {
		if !m.Has(name) {
			t.Errorf("expected limiter %q to be registered", name)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := m.Wait(ctx, LimiterPacing); err != nil {
		t.Errorf("expected first pacing token to be available: %v", err)
	}
}
