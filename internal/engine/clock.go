package engine

import "sync/atomic"

// Clock is a monotonic logical clock for trace ordering.
//
// Every trace event is stamped with a strictly increasing seq from this
// clock, never with wall time, so a replayed run produces the same order.
//
// Thread-safety: safe for concurrent use. In practice only the driver
// goroutine calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
