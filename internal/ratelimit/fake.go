package ratelimit

import (
	"context"
	"time"
)

// FakeClock is a Clock that advances only when slept on
type FakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

// NewFakeClock returns a FakeClock starting at start
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Sleep advances the clock by d without blocking
func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// Sleeps returns every duration slept so far
func (c *FakeClock) Sleeps() []time.Duration {
	return append([]time.Duration(nil), c.sleeps...)
}
