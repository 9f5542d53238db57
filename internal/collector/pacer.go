package collector

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces successive provider calls
type Pacer interface {
	Wait(ctx context.Context) error
}

// CallTracker is implemented by pacers that measure the gap from the end of a call
type CallTracker interface {
	Done()
}

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// RatePacer lets one call start per interval, and no sooner than one interval
// after the previous call finished. The first call is not delayed.
type RatePacer struct {
	limiter  *rate.Limiter
	interval time.Duration

	mu      sync.Mutex
	readyAt time.Time
}

// NewRatePacer creates a RatePacer; a non-positive interval disables pacing
func NewRatePacer(interval time.Duration) *RatePacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RatePacer{limiter: rate.NewLimiter(limit, 1), interval: interval}
}

// Wait blocks until the next call may start
func (p *RatePacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	readyAt := p.readyAt
	p.mu.Unlock()

	if d := time.Until(readyAt); d > 0 {
		if err := SleepContext(ctx, d); err != nil {
			return err
		}
	}
	return p.limiter.Wait(ctx)
}

// Done records the end of a call
func (p *RatePacer) Done() {
	if p.interval <= 0 {
		return
	}
	p.mu.Lock()
	p.readyAt = time.Now().Add(p.interval)
	p.mu.Unlock()
}

type nopPacer struct{}

func (nopPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}

// NopPacer returns a Pacer that never waits
func NopPacer() Pacer {
	return nopPacer{}
}

// SleepContext is the default Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
