// Package runtime drives block scripts frame by frame.
//
// A Runtime owns the program instances (targets) of a loaded project and
// every thread running on them. Each frame it polls edge-activated hats,
// refreshes watched values, re-arms threads waiting for the next tick and
// steps the thread list within a work-time budget. External input (green
// flag, key presses, broadcasts, clicks) arrives through a request queue
// drained at the start of each frame, so all execution stays on the
// frame loop goroutine.
package runtime
