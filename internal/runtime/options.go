package runtime

import (
	"log/slog"
	"time"

	"github.com/roach88/blockvm/internal/engine"
)

// Defaults for a runtime built without options.
const (
	DefaultFramerate = 30
	// DefaultWorkFraction is the share of a frame spent stepping threads.
	DefaultWorkFraction = 0.75
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithWarpTime sets the budget a warp-mode call may run before yielding.
//
// Default: 500ms (engine.DefaultWarpTime)
func WithWarpTime(d time.Duration) Option {
	return func(r *Runtime) {
		r.warpTime = d
	}
}

// WithWorkTime sets how long one frame may step threads.
//
// Default: 75% of the frame interval
func WithWorkTime(d time.Duration) Option {
	return func(r *Runtime) {
		r.workTime = d
	}
}

// WithFramerate sets the frames per second Run drives.
//
// Default: 30
func WithFramerate(fps int) Option {
	return func(r *Runtime) {
		if fps > 0 {
			r.framerate = fps
		}
	}
}

// WithMaxPasses caps the passes over the thread list per frame. Zero means
// no cap beyond the work time. Deterministic runs on a manual clock need
// a cap, since their work time never runs out.
func WithMaxPasses(n int) Option {
	return func(r *Runtime) {
		r.maxPasses = n
	}
}

// WithTurbo keeps stepping after a redraw request until the work time or
// pass cap ends the frame.
func WithTurbo(on bool) Option {
	return func(r *Runtime) {
		r.turbo = on
	}
}

// WithClock sets the time source for frames, warp timers and the project
// timer.
//
// Default: engine.SystemTime{}
func WithClock(src engine.TimeSource) Option {
	return func(r *Runtime) {
		r.clock = src
	}
}

// WithLogger sets the structured logger.
//
// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// WithReportSink receives stack-click results and monitor updates.
func WithReportSink(s engine.ReportSink) Option {
	return func(r *Runtime) {
		r.sink = s
	}
}

// WithRunIDGenerator sets the generator for run IDs.
//
// Default: UUIDv7Generator{}
func WithRunIDGenerator(g IDGenerator) Option {
	return func(r *Runtime) {
		r.ids = g
	}
}

// WithRecorder adds a recorder for trace events. May be given more than
// once.
func WithRecorder(rec Recorder) Option {
	return func(r *Runtime) {
		r.recorders = append(r.recorders, rec)
	}
}
