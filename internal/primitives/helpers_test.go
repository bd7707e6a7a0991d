package primitives_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
	"github.com/roach88/blockvm/internal/primitives"
	"github.com/roach88/blockvm/internal/runtime"
	"github.com/roach88/blockvm/internal/testutil"
)

type reports struct{ values []ir.Value }

func (r *reports) ReportValue(_ string, v ir.Value)          { r.values = append(r.values, v) }
func (r *reports) RequestUpdateMonitor(engine.MonitorUpdate) {}

type harness struct {
	t       *testing.T
	rt      *runtime.Runtime
	clock   *testutil.ManualClock
	reports *reports
}

// newHarness loads a project whose targets are given as YAML.
func newHarness(t *testing.T, targets string) *harness {
	t.Helper()

	var p ir.Project
	require.NoError(t, yaml.Unmarshal([]byte("name: test\ntargets:\n"+targets), &p))

	h := &harness{t: t, clock: testutil.NewManualClock(), reports: &reports{}}
	h.rt = runtime.New(primitives.NewRegistry(),
		runtime.WithClock(h.clock),
		runtime.WithMaxPasses(10),
		runtime.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		runtime.WithRunIDGenerator(testutil.NewFixedIDGenerator("run-test")),
		runtime.WithReportSink(h.reports),
	)
	require.NoError(t, h.rt.LoadProject(p))
	return h
}

// flag clicks the green flag and runs frames, advancing the clock by step
// before each.
func (h *harness) flag(frames int, step time.Duration) {
	h.rt.GreenFlag()
	h.frames(frames, step)
}

func (h *harness) frames(n int, step time.Duration) {
	for i := 0; i < n; i++ {
		h.clock.Advance(step)
		h.rt.StepFrame()
	}
}

func (h *harness) variable(target, name string) ir.Value {
	h.t.Helper()
	tg := h.rt.Target(target)
	require.NotNil(h.t, tg, "target %s", target)
	return tg.Variables()[name]
}

// click runs a single reporter block as a stack click and returns what it
// reported.
func click(t *testing.T, blocks string) ir.Value {
	t.Helper()
	h := newHarness(t, `
  - name: Sprite
    blocks:
`+blocks)
	_, err := h.rt.ToggleScript("Sprite", "top")
	require.NoError(t, err)
	h.rt.RunFrames(1)
	require.Len(t, h.reports.values, 1)
	return h.reports.values[0]
}
