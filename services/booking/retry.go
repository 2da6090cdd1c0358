package booking

import (
	"context"
	"math/rand"
	"time"
)

// Clock abstracts time so the poll loop can run against a fake clock in
// tests instead of real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Sleep blocks for d or until the context is cancelled.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy is an explicit bounded poll/retry policy: a fixed number of
// attempts separated by a fixed interval plus optional jitter.
type RetryPolicy struct {
	Attempts int
	Interval time.Duration
	Jitter   time.Duration
}

// Wait sleeps for one interval (plus jitter) between attempts.
func (p RetryPolicy) Wait(ctx context.Context, clock Clock) error {
	d := p.Interval
	if p.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.Jitter)))
	}
	return clock.Sleep(ctx, d)
}
