package mocks

import (
	"time"

	"github.com/mcoot/fairway/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing
type MockClock struct {
	CurrentTime time.Time
	tickers     []*ManualTicker
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	return c.CurrentTime
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}

// NewTicker returns a ManualTicker driven by Tick
func (c *MockClock) NewTicker(d time.Duration) clock.Ticker {
	t := &ManualTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

// Tick fires every ticker created from this clock once
func (c *MockClock) Tick() {
	for _, t := range c.tickers {
		t.Fire(c.CurrentTime)
	}
}

// ManualTicker is a Ticker fired explicitly by tests
type ManualTicker struct {
	ch      chan time.Time
	stopped bool
}

// C returns the tick channel
func (t *ManualTicker) C() <-chan time.Time {
	return t.ch
}

// Stop marks the ticker stopped; further Fire calls are dropped
func (t *ManualTicker) Stop() {
	t.stopped = true
}

// Fire delivers one tick, dropping it if the receiver is not ready
func (t *ManualTicker) Fire(at time.Time) {
	if t.stopped {
		return
	}
	select {
	case t.ch <- at:
	default:
	}
}
