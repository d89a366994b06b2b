// Package ratelimit paces calls to the Notion API.
//
// The pacer sleeps a fixed interval before every call. It is created once per
// run and handed to the store client, so tests can swap the clock.
package ratelimit

import (
	"context"
	"time"
)

// DefaultInterval keeps a run below the API's average of three requests per second
const DefaultInterval = 350 * time.Millisecond

// Clock is the time source the pacer sleeps on
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock returns a Clock backed by the real time
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer enforces an unconditional delay before each API call
type Pacer struct {
	clock    Clock
	interval time.Duration
	calls    int
	last     time.Time
}

// NewPacer creates a pacer. A negative interval is treated as zero.
func NewPacer(clock Clock, interval time.Duration) *Pacer {
	if clock == nil {
		clock = SystemClock()
	}
	if interval < 0 {
		interval = 0
	}
	return &Pacer{clock: clock, interval: interval}
}

// Wait sleeps for the configured interval and records the call
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.clock.Sleep(ctx, p.interval); err != nil {
		return err
	}
	p.calls++
	p.last = p.clock.Now()
	return nil
}

// Clock returns the pacer's time source
func (p *Pacer) Clock() Clock {
	return p.clock
}

// Interval returns the delay applied before each call
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Calls returns how many calls have been paced so far
func (p *Pacer) Calls() int {
	return p.calls
}

// LastCall returns the time the most recent call was released
func (p *Pacer) LastCall() time.Time {
	return p.last
}
