package engine

import "time"

// DefaultWarpTime is how long a warp-mode thread may run inside a single
// step before a procedure call forces it to yield.
const DefaultWarpTime = 500 * time.Millisecond

// TimeSource supplies the current time. The runtime uses the wall clock;
// tests use testutil.ManualClock.
type TimeSource interface {
	Now() time.Time
}

// SystemTime reads the wall clock.
type SystemTime struct{}

// Now returns time.Now().
func (SystemTime) Now() time.Time {
	return time.Now()
}

// Timer measures elapsed time from a start point on a TimeSource.
type Timer struct {
	src   TimeSource
	start time.Time
}

// StartTimer returns a timer started now.
func StartTimer(src TimeSource) *Timer {
	if src == nil {
		src = SystemTime{}
	}
	return &Timer{src: src, start: src.Now()}
}

// Restart resets the start point to now.
func (t *Timer) Restart() {
	t.start = t.src.Now()
}

// Elapsed returns the time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return t.src.Now().Sub(t.start)
}
