package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/blockvm/internal/primitives"
	"github.com/roach88/blockvm/internal/project"
	"github.com/roach88/blockvm/internal/runtime"
	"github.com/roach88/blockvm/internal/store"
	"github.com/roach88/blockvm/internal/testutil"
)

// Scenario defaults.
const (
	DefaultMaxPasses = 10
	DefaultFrameMS   = 1000 / runtime.DefaultFramerate
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, on a
// manual clock with a fixed run ID.
//
// Execution flow:
// 1. Load the project and start a runtime recording into the store
// 2. Execute steps in order
// 3. Snapshot variables into the store and read the run back
// 4. Evaluate assertions against the result
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for store access.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	loaded, err := project.Load(scenario.Project)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	frameMS := scenario.FrameMS
	if frameMS == 0 {
		frameMS = DefaultFrameMS
	}
	maxPasses := scenario.MaxPasses
	if maxPasses == 0 {
		maxPasses = DefaultMaxPasses
	}

	clock := testutil.NewManualClock()
	reports := &reportCollector{}
	rt := runtime.New(primitives.NewRegistry(),
		runtime.WithClock(clock),
		runtime.WithMaxPasses(maxPasses),
		runtime.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
		runtime.WithRunIDGenerator(testutil.NewFixedIDGenerator(scenario.RunID)),
		runtime.WithReportSink(reports),
		runtime.WithRecorder(st.Recorder(ctx)),
	)
	if err := rt.LoadProject(loaded.Project); err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	runID := rt.RunID()
	if err := st.BeginRun(ctx, store.Run{ID: runID, Project: loaded.Project.Name, ProjectHash: loaded.Hash}); err != nil {
		return nil, err
	}

	frame := time.Duration(frameMS) * time.Millisecond
	for i, step := range scenario.Steps {
		if err := execute(rt, clock, frame, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	for _, t := range rt.Targets() {
		if !t.IsOriginal() {
			continue
		}
		if err := st.WriteVariables(ctx, runID, rt.Frame(), t.Name(), t.Variables()); err != nil {
			return nil, err
		}
	}
	if err := st.FinishRun(ctx, runID, rt.Frame(), nil); err != nil {
		return nil, err
	}

	result := NewResult()
	result.RunID = runID
	result.Frames = rt.Frame()
	result.Reports = reports.reports
	result.Threads = len(rt.Threads())
	for _, t := range rt.Targets() {
		if s := t.Saying(); s != "" && t.IsOriginal() {
			result.Saying[t.Name()] = s
		}
	}

	events, err := st.ReadEvents(ctx, runID)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		result.Trace = append(result.Trace, traceEvent(ev))
	}
	if result.Variables, err = st.ReadVariables(ctx, runID); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// execute applies one step. Requests take effect at the next frame.
func execute(rt *runtime.Runtime, clock *testutil.ManualClock, frame time.Duration, step Step) error {
	var req runtime.Request
	switch {
	case step.GreenFlag:
		req = runtime.Request{Kind: runtime.RequestGreenFlag}
	case step.Key != "":
		req = runtime.Request{Kind: runtime.RequestKeyPress, Key: step.Key}
	case step.Broadcast != "":
		req = runtime.Request{Kind: runtime.RequestBroadcast, Name: step.Broadcast}
	case step.Click != nil:
		if rt.Target(step.Click.Target) == nil {
			return fmt.Errorf("click: target %q not found", step.Click.Target)
		}
		req = runtime.Request{Kind: runtime.RequestClick, Target: step.Click.Target, Block: step.Click.Block}
	case step.StopAll:
		req = runtime.Request{Kind: runtime.RequestStopAll}
	case step.Answer != nil:
		req = runtime.Request{Kind: runtime.RequestAnswer, Text: *step.Answer}
	case step.Frames > 0:
		for i := 0; i < step.Frames; i++ {
			clock.Advance(frame)
			rt.RunFrames(1)
		}
		return nil
	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		clock.Advance(d)
		return nil
	default:
		return fmt.Errorf("empty step")
	}

	rt.Enqueue(req)
	return nil
}
