package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimer_FiresOncePerInterval(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	timer := NewTimer(clock, 5*time.Second)

	fired := 0
	for i := 0; i <= 12; i++ {
		if timer.Check() {
			fired++
		}
		clock.Advance(time.Second)
	}
	require.Equal(t, 2, fired)
}

func TestTimer_ResetsToNow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	timer := NewTimer(clock, 5*time.Second)

	// Checked late: the next period starts at the late check.
	clock.Advance(7 * time.Second)
	require.True(t, timer.Check())
	require.False(t, timer.Check())

	clock.Advance(3 * time.Second)
	require.False(t, timer.Check(), "must not catch up on the missed 2s")
	require.Equal(t, 2*time.Second, timer.Remaining())

	clock.Advance(2 * time.Second)
	require.True(t, timer.Check())
}

func TestTimer_Remaining(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	timer := NewTimer(clock, 5*time.Second)
	require.Equal(t, 5*time.Second, timer.Remaining())

	clock.Advance(4 * time.Second)
	require.Equal(t, time.Second, timer.Remaining())

	clock.Advance(10 * time.Second)
	require.Zero(t, timer.Remaining())
}

func TestRealClock(t *testing.T) {
	before := time.Now()
	now := RealClock().Now()
	require.False(t, now.Before(before))
}
