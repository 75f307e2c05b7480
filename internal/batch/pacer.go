package batch

import (
	"context"
	"time"

	"github.com/comment-insights/pkg/ratelimit"
)

// Pacer gates the start of the next video in a batch. It is only consulted
// between videos, never after the last one.
type Pacer interface {
	Wait(ctx context.Context) error
}

// PacerFunc adapts a function to Pacer
type PacerFunc func(ctx context.Context) error

func (f PacerFunc) Wait(ctx context.Context) error { return f(ctx) }

// FixedInterval sleeps d between videos
func FixedInterval(d time.Duration) Pacer {
	return fixedInterval(d)
}

type fixedInterval time.Duration

func (d fixedInterval) Wait(ctx context.Context) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(d))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LimiterPacer takes one token from the shared pacing bucket per video, so
// concurrent batches in the same process share the upstream budget.
type LimiterPacer struct {
	limiter *ratelimit.MultiLimiter
}

// NewLimiterPacer creates a pacer over the limiter's pacing bucket
func NewLimiterPacer(limiter *ratelimit.MultiLimiter) *LimiterPacer {
	return &LimiterPacer{limiter: limiter}
}

func (p *LimiterPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx, ratelimit.LimiterPacing)
}

// NoPacing runs videos back to back
var NoPacing Pacer = PacerFunc(func(ctx context.Context) error { return ctx.Err() })
