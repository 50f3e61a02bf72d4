// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

type (
	// Clock is the time source the launcher reads. FakeClock implements it.
	Clock interface {
		// Now returns the current time.
		Now() time.Time
		// Since returns the time elapsed since t.
		Since(t time.Time) time.Duration
	}

	// FakeClock implements Clock with manually controlled time for testing.
	// Time only advances when Advance() or Set() is called, or by Step on
	// every Now() call when Step is non-zero.
	FakeClock struct {
		mu      sync.Mutex
		current time.Time
		step    time.Duration
	}
)

// NewFakeClock creates a FakeClock initialized to the given time.
// If initial is zero, defaults to a fixed reference time for reproducibility.
func NewFakeClock(initial time.Time) *FakeClock {
	if initial.IsZero() {
		initial = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &FakeClock{current: initial}
}

// Now returns the current fake time, then moves it forward by the step set
// with SetStep.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// Since returns the fake time elapsed since t.
func (c *FakeClock) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Sub(t)
}

// Advance moves the fake time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set sets the fake time to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// SetStep makes every Now() call advance the clock by d afterwards, so
// consecutive timestamps are distinct.
func (c *FakeClock) SetStep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = d
}
