package monitor

import "time"

// Clock abstracts the wall clock so tests can drive the keep-alive
// timer deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns a Clock backed by time.Now.
func RealClock() Clock { return realClock{} }

// Timer fires at most once per interval. Firing resets the reference
// point to the firing time, so lateness is not made up for later.
type Timer struct {
	clock    Clock
	interval time.Duration
	last     time.Time
}

// NewTimer starts a Timer whose first period begins now.
func NewTimer(clock Clock, interval time.Duration) *Timer {
	return &Timer{
		clock:    clock,
		interval: interval,
		last:     clock.Now(),
	}
}

// Check reports whether the interval has elapsed since the last firing
// and, if so, restarts the period.
func (t *Timer) Check() bool {
	now := t.clock.Now()
	if now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// Remaining returns the time left until the timer is due, never negative.
func (t *Timer) Remaining() time.Duration {
	d := t.interval - t.clock.Now().Sub(t.last)
	if d < 0 {
		return 0
	}
	return d
}
