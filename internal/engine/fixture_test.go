package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/blockvm/internal/blocks"
	"github.com/roach88/blockvm/internal/ir"
	"github.com/roach88/blockvm/internal/testutil"
)

// testTarget is a minimal program instance over a blocks.Container.
type testTarget struct {
	id     string
	stage  bool
	blocks *blocks.Container
	edges  map[string]bool
}

func (t *testTarget) ID() string        { return t.id }
func (t *testTarget) Name() string      { return t.id }
func (t *testTarget) IsStage() bool     { return t.stage }
func (t *testTarget) Blocks() Container { return t.blocks }

func (t *testTarget) HasEdgeActivatedValue(blockID string) bool {
	_, ok := t.edges[blockID]
	return ok
}

func (t *testTarget) UpdateEdgeActivatedValue(blockID string, v bool) bool {
	old := t.edges[blockID]
	t.edges[blockID] = v
	return old
}

type recordingSink struct {
	reports  []ir.Value
	monitors []MonitorUpdate
}

func (s *recordingSink) ReportValue(_ string, v ir.Value)     { s.reports = append(s.reports, v) }
func (s *recordingSink) RequestUpdateMonitor(u MonitorUpdate) { s.monitors = append(s.monitors, u) }

// fixture wires a registry of small test primitives to one target.
type fixture struct {
	t       *testing.T
	reg     *Registry
	env     *Env
	clock   *testutil.ManualClock
	target  *testTarget
	sink    *recordingSink
	events  []TraceEvent
	log     []string
	counter int
	edgeSeq []bool
	future  *Future
}

func newFixture(t *testing.T, src string, opts ...EnvOption) *fixture {
	t.Helper()

	var bs []ir.Block
	require.NoError(t, yaml.Unmarshal([]byte(src), &bs))
	c, err := blocks.FromBlocks(bs)
	require.NoError(t, err)

	f := &fixture{
		t:      t,
		reg:    NewRegistry(),
		clock:  testutil.NewManualClock(),
		target: &testTarget{id: "sprite", blocks: c, edges: make(map[string]bool)},
		sink:   &recordingSink{},
		future: NewFuture(),
	}
	f.registerPrimitives()

	base := []EnvOption{
		WithTimeSource(f.clock),
		WithReportSink(f.sink),
		WithTracer(TracerFunc(func(ev TraceEvent) { f.events = append(f.events, ev) })),
	}
	f.env = NewEnv(f.reg, append(base, opts...)...)
	return f
}

func (f *fixture) registerPrimitives() {
	r := f.reg
	r.Register("procedures_definition", func(*Args, *Util) Coroutine { return nil })
	r.Register("test_value", func(a *Args, _ *Util) Coroutine {
		return Return(a.Field("VALUE"))
	})
	r.Register("test_log", func(a *Args, _ *Util) Coroutine {
		return Then(a.Input("VALUE"), func(v ir.Value) Coroutine {
			f.log = append(f.log, ir.ToString(v))
			return Return(nil)
		})
	})
	r.Register("test_yield", func(_ *Args, u *Util) Coroutine {
		return u.Yield()
	})
	r.Register("test_yield_tick", func(_ *Args, u *Util) Coroutine {
		return u.YieldTick()
	})
	r.Register("test_ticks", func(a *Args, _ *Util) Coroutine {
		f.clock.Advance(time.Duration(ir.ToNumber(a.Field("MS"))) * time.Millisecond)
		return nil
	})
	r.Register("test_incr", func(*Args, *Util) Coroutine {
		f.counter++
		return nil
	})
	r.Register("test_counter", func(*Args, *Util) Coroutine {
		return Return(ir.Int(f.counter))
	})
	r.Register("test_lt", func(a *Args, _ *Util) Coroutine {
		return Then(a.Input("A"), func(x ir.Value) Coroutine {
			return Map(a.Input("B"), func(y ir.Value) ir.Value {
				return ir.Bool(ir.Compare(x, y) < 0)
			})
		})
	})
	r.Register("test_if", func(a *Args, _ *Util) Coroutine {
		return Then(a.Input("CONDITION"), func(v ir.Value) Coroutine {
			if ir.ToBool(v) && a.Has("SUBSTACK") {
				return a.Input("SUBSTACK")
			}
			return Return(nil)
		})
	})
	r.Register("test_call", func(a *Args, u *Util) Coroutine {
		return evalParams(a, a.InputNames(), map[string]ir.Value{}, func(params map[string]ir.Value) Coroutine {
			return u.StartProcedure(ir.ToString(a.Field("PROC")), params)
		})
	})
	r.Register("test_arg", func(a *Args, u *Util) Coroutine {
		if v, ok := u.GetParam(ir.ToString(a.Field("NAME"))); ok {
			return Return(v)
		}
		return Return(ir.Int(0))
	})
	r.Register("test_stop", func(a *Args, u *Util) Coroutine {
		return Then(a.Input("VALUE"), u.StopThisScript)
	})
	r.Register("test_return", func(a *Args, u *Util) Coroutine {
		return Then(a.Input("VALUE"), u.Return)
	})
	r.Register("test_await", func(_ *Args, u *Util) Coroutine {
		return u.Await(f.future)
	})
	r.Register("test_await_settled", func(_ *Args, u *Util) Coroutine {
		return u.AwaitSettled(f.future, func(v ir.Value, err error) Coroutine {
			if err != nil {
				return Return(ir.String("caught: " + err.Error()))
			}
			return Return(v)
		})
	})

	r.Register("test_when", func(a *Args, _ *Util) Coroutine {
		return Return(a.Field("VALUE"))
	})
	r.RegisterHat("test_when", HatInfo{})
	r.RegisterHat("test_flag", HatInfo{RestartExistingThreads: true})
	r.Register("test_edge", func(*Args, *Util) Coroutine {
		v := f.edgeSeq[0]
		f.edgeSeq = f.edgeSeq[1:]
		return Return(ir.Bool(v))
	})
	r.RegisterHat("test_edge", HatInfo{EdgeActivated: true})
}

// evalParams evaluates the named inputs left to right into params.
func evalParams(a *Args, names []string, params map[string]ir.Value, k func(map[string]ir.Value) Coroutine) Coroutine {
	if len(names) == 0 {
		return k(params)
	}
	return Then(a.Input(names[0]), func(v ir.Value) Coroutine {
		params[names[0]] = v
		return evalParams(a, names[1:], params, k)
	})
}

func (f *fixture) thread(top string, opts ...ThreadOption) *Thread {
	return NewThread(f.env, f.target, top, opts...)
}

// run steps a thread until Done, starting a new tick before every step.
// Returns the number of steps taken.
func (f *fixture) run(th *Thread) int {
	f.t.Helper()
	for steps := 1; steps <= 1000; steps++ {
		th.BeginTick()
		require.NoError(f.t, th.Step())
		if th.Status() == StatusDone {
			return steps
		}
	}
	f.t.Fatalf("thread %s did not finish", th.ID())
	return 0
}

func (f *fixture) eventsOf(kind TraceKind) []TraceEvent {
	var out []TraceEvent
	for _, ev := range f.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
