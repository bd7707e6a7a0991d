package runtime_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
	"github.com/roach88/blockvm/internal/primitives"
	"github.com/roach88/blockvm/internal/runtime"
	"github.com/roach88/blockvm/internal/testutil"
)

type sink struct {
	reports  []ir.Value
	monitors []engine.MonitorUpdate
}

func (s *sink) ReportValue(_ string, v ir.Value)            { s.reports = append(s.reports, v) }
func (s *sink) RequestUpdateMonitor(u engine.MonitorUpdate) { s.monitors = append(s.monitors, u) }

type world struct {
	t      *testing.T
	rt     *runtime.Runtime
	clock  *testutil.ManualClock
	sink   *sink
	events []runtime.Event
}

// newWorld loads a YAML project into a runtime on a manual clock with the
// full block library and at most ten passes per frame.
func newWorld(t *testing.T, src string, opts ...runtime.Option) *world {
	t.Helper()

	var p ir.Project
	require.NoError(t, yaml.Unmarshal([]byte(src), &p))

	w := &world{t: t, clock: testutil.NewManualClock(), sink: &sink{}}
	base := []runtime.Option{
		runtime.WithClock(w.clock),
		runtime.WithMaxPasses(10),
		runtime.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		runtime.WithRunIDGenerator(testutil.NewFixedIDGenerator("run-test")),
		runtime.WithReportSink(w.sink),
		runtime.WithRecorder(runtime.RecorderFunc(func(ev runtime.Event) error {
			w.events = append(w.events, ev)
			return nil
		})),
	}
	w.rt = runtime.New(primitives.NewRegistry(), append(base, opts...)...)
	require.NoError(t, w.rt.LoadProject(p))
	return w
}

func (w *world) variable(target, name string) ir.Value {
	w.t.Helper()
	tg := w.rt.Target(target)
	require.NotNil(w.t, tg, "target %s", target)
	return tg.Variables()[name]
}

func (w *world) eventsOf(kind string) []runtime.Event {
	var out []runtime.Event
	for _, ev := range w.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
