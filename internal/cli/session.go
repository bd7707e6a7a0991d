package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
	"github.com/roach88/blockvm/internal/primitives"
	"github.com/roach88/blockvm/internal/project"
	"github.com/roach88/blockvm/internal/runtime"
	"github.com/roach88/blockvm/internal/testutil"
)

// DefaultMaxPasses caps passes per frame in deterministic runs.
const DefaultMaxPasses = 10

// SessionOptions are the runtime flags shared by run and replay.
type SessionOptions struct {
	FPS           int
	Frames        int
	WarpTime      time.Duration
	Turbo         bool
	Deterministic bool
	MaxPasses     int
	GreenFlag     bool
	Broadcasts    []string
	Keys          []string
}

// Report is a value shown by a clicked script or a monitor.
type Report struct {
	BlockID string `json:"block_id"`
	Sprite  string `json:"sprite,omitempty"`
	Value   any    `json:"value"`
	Monitor bool   `json:"monitor,omitempty"`
}

// reportCollector implements engine.ReportSink.
type reportCollector struct {
	reports []Report
}

func (c *reportCollector) ReportValue(blockID string, v ir.Value) {
	c.reports = append(c.reports, Report{BlockID: blockID, Value: ir.ToGo(v)})
}

func (c *reportCollector) RequestUpdateMonitor(u engine.MonitorUpdate) {
	c.reports = append(c.reports, Report{BlockID: u.ID, Sprite: u.SpriteName, Value: ir.ToGo(u.Value), Monitor: true})
}

// session is one runtime executing a loaded project.
type session struct {
	opts    SessionOptions
	rt      *runtime.Runtime
	clock   *testutil.ManualClock // set in deterministic mode
	reports *reportCollector
}

// newSession builds a runtime for loaded. A non-empty runID pins the run
// ID, which replays need for comparable event IDs.
func newSession(loaded *project.Loaded, opts SessionOptions, runID string, recorders ...runtime.Recorder) (*session, error) {
	if opts.Deterministic && opts.Frames <= 0 {
		return nil, NewExitError(ExitCommandError, "--deterministic needs --frames")
	}

	s := &session{opts: opts, reports: &reportCollector{}}
	rtOpts := []runtime.Option{
		runtime.WithFramerate(opts.FPS),
		runtime.WithTurbo(opts.Turbo),
		runtime.WithLogger(slog.Default()),
		runtime.WithReportSink(s.reports),
	}
	if opts.WarpTime > 0 {
		rtOpts = append(rtOpts, runtime.WithWarpTime(opts.WarpTime))
	}
	if opts.Deterministic {
		maxPasses := opts.MaxPasses
		if maxPasses <= 0 {
			maxPasses = DefaultMaxPasses
		}
		s.clock = testutil.NewManualClock()
		rtOpts = append(rtOpts, runtime.WithClock(s.clock), runtime.WithMaxPasses(maxPasses))
	} else if opts.MaxPasses > 0 {
		rtOpts = append(rtOpts, runtime.WithMaxPasses(opts.MaxPasses))
	}
	if runID != "" {
		rtOpts = append(rtOpts, runtime.WithRunIDGenerator(testutil.NewFixedIDGenerator(runID)))
	}
	for _, rec := range recorders {
		rtOpts = append(rtOpts, runtime.WithRecorder(rec))
	}

	s.rt = runtime.New(primitives.NewRegistry(), rtOpts...)
	if err := s.rt.LoadProject(loaded.Project); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load project", err)
	}
	return s, nil
}

// run queues the startup requests and drives frames: a fixed count when
// Frames is set, otherwise until ctx is cancelled.
func (s *session) run(ctx context.Context) error {
	if s.opts.GreenFlag {
		s.rt.Enqueue(runtime.Request{Kind: runtime.RequestGreenFlag})
	}
	for _, key := range s.opts.Keys {
		s.rt.Enqueue(runtime.Request{Kind: runtime.RequestKeyPress, Key: key})
	}
	for _, name := range s.opts.Broadcasts {
		s.rt.Enqueue(runtime.Request{Kind: runtime.RequestBroadcast, Name: name})
	}

	switch {
	case s.clock != nil:
		for i := 0; i < s.opts.Frames; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.clock.Advance(s.rt.FrameInterval())
			s.rt.RunFrames(1)
		}
		return nil

	case s.opts.Frames > 0:
		ticker := time.NewTicker(s.rt.FrameInterval())
		defer ticker.Stop()
		for i := 0; i < s.opts.Frames; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				s.rt.RunFrames(1)
			}
		}
		return nil

	default:
		return s.rt.Run(ctx)
	}
}

// variables returns the variables of every original target as plain Go
// values.
func (s *session) variables() map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, t := range s.rt.Targets() {
		if !t.IsOriginal() {
			continue
		}
		vars := make(map[string]any)
		for name, v := range t.Variables() {
			vars[name] = ir.ToGo(v)
		}
		out[t.Name()] = vars
	}
	return out
}
