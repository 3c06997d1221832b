// internal/sim/tickclock.go

package sim

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// TickClock counts simulated ticks. With a non-zero interval each tick also
// waits for wall-clock time, so a run can be watched as it happens; the tick
// sequence itself never depends on the wall clock.
type TickClock struct {
	count   atomic.Int64
	limiter *rate.Limiter // nil runs unpaced
}

// NewTickClock creates a clock paced at one tick per interval (0 = unpaced).
func NewTickClock(interval time.Duration) *TickClock {
	c := &TickClock{}
	if interval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return c
}

// Advance moves the clock forward by one tick. It only fails when ctx is done
// while waiting for pacing.
func (c *TickClock) Advance(ctx context.Context) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	c.count.Add(1)
	return nil
}

// Count returns the current tick count atomically.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}
