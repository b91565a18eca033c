// Package ratelimit spaces outbound transport calls. The external messaging
// platform enforces a per-bot message-rate ceiling; keeping a minimum gap
// between sends inside one worker invocation stays comfortably under it.
package ratelimit

import (
	"context"
	"time"
)

// Pacer throttles successive sends within one dispatch invocation.
type Pacer interface {
	Wait(ctx context.Context) error
}

// IntervalPacer enforces a fixed minimum interval between calls. State is
// per-instance: each worker invocation constructs its own pacer, so nothing
// is shared across invocations.
type IntervalPacer struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewIntervalPacer(interval time.Duration) *IntervalPacer {
	return &IntervalPacer{
		interval: interval,
		now:      time.Now,
		sleep:    sleepWithContext,
	}
}

// Wait blocks until at least the configured interval has passed since the
// previous call, or the context is done. The first call never blocks.
func (p *IntervalPacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}

	now := p.now()
	if !p.last.IsZero() {
		if wait := p.interval - now.Sub(p.last); wait > 0 {
			if err := p.sleep(ctx, wait); err != nil {
				return err
			}
			now = p.now()
		}
	}

	p.last = now
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
