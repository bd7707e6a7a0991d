package runtime

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/blockvm/internal/blocks"
	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

// Runtime is the frame driver: it owns the targets and their threads,
// starts hats, and steps every live thread each frame within a work-time
// budget.
//
// Thread-safety model:
//   - Enqueue, Stop, RunID: safe from any goroutine
//   - Run, RunFrames, StepFrame and every other method: the frame loop
//     goroutine only; primitives call back into the runtime on it
//
// Errors from a thread are logged with the thread's context and the thread
// is dropped; the frame loop carries on.
type Runtime struct {
	registry  *engine.Registry
	env       *engine.Env
	clock     engine.TimeSource
	logger    *slog.Logger
	sink      engine.ReportSink
	ids       IDGenerator
	recorders []Recorder
	seq       *engine.Clock

	warpTime  time.Duration
	workTime  time.Duration
	framerate int
	maxPasses int
	turbo     bool

	runID    string
	targets  []*Target // layer order, stage first
	threads  []*engine.Thread
	monitors []monitor
	frame    int64
	redraw   bool
	cloneSeq int

	queue    *requestQueue
	devices  map[string]Device
	keyboard *Keyboard
	timer    *ProjectClock
	asker    *Asker
}

type monitor struct {
	target  *Target
	blockID string
}

// New creates a runtime dispatching through reg.
func New(reg *engine.Registry, opts ...Option) *Runtime {
	r := &Runtime{
		registry:  reg,
		clock:     engine.SystemTime{},
		logger:    slog.Default(),
		ids:       UUIDv7Generator{},
		seq:       engine.NewClock(),
		warpTime:  engine.DefaultWarpTime,
		framerate: DefaultFramerate,
		queue:     newRequestQueue(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workTime <= 0 {
		r.workTime = time.Duration(float64(r.FrameInterval()) * DefaultWorkFraction)
	}

	r.runID = r.ids.Generate()
	r.keyboard = NewKeyboard()
	r.timer = NewProjectClock(r.clock)
	r.asker = NewAsker()
	r.devices = map[string]Device{
		"clock":    r.timer,
		"keyboard": r.keyboard,
		"ask":      r.asker,
	}
	r.env = engine.NewEnv(reg,
		engine.WithTimeSource(r.clock),
		engine.WithWarpTime(r.warpTime),
		engine.WithReportSink(r.sink),
		engine.WithTracer(r),
		engine.WithHost(r),
		engine.WithLogger(r.logger),
	)
	return r
}

// RunID returns the ID stamped on every event of this run.
func (r *Runtime) RunID() string { return r.runID }

// Env returns the engine environment threads share.
func (r *Runtime) Env() *engine.Env { return r.env }

// Frame returns the number of frames stepped so far.
func (r *Runtime) Frame() int64 { return r.frame }

// FrameInterval returns the time between frames at the configured rate.
func (r *Runtime) FrameInterval() time.Duration {
	return time.Second / time.Duration(r.framerate)
}

// Keyboard returns the keyboard device.
func (r *Runtime) Keyboard() *Keyboard { return r.keyboard }

// Asker returns the ask device.
func (r *Runtime) Asker() *Asker { return r.asker }

// Clock returns the project timer device.
func (r *Runtime) Clock() *ProjectClock { return r.timer }

// AddDevice registers an IO device under a name, replacing any existing
// one.
func (r *Runtime) AddDevice(name string, d Device) {
	r.devices[name] = d
}

// LoadProject replaces the runtime's targets with the project's. Existing
// threads are stopped. Target IDs are the target names, which must be
// unique.
func (r *Runtime) LoadProject(p ir.Project) error {
	r.StopAll()
	// Clones share their original's container.
	for _, t := range r.targets {
		r.env.Cache().Forget(t.Container())
	}
	r.targets = nil
	r.monitors = nil

	seen := make(map[string]bool, len(p.Targets))
	for _, spec := range p.Targets {
		if seen[spec.Name] {
			return fmt.Errorf("duplicate target %q", spec.Name)
		}
		seen[spec.Name] = true

		c, err := blocks.FromBlocks(spec.Blocks)
		if err != nil {
			return fmt.Errorf("target %q: %w", spec.Name, err)
		}
		c.SetForceNoGlow(spec.NoGlow)
		t := newTarget(r, spec.Name, spec, c)
		if spec.IsStage {
			r.targets = append([]*Target{t}, r.targets...)
		} else {
			r.targets = append(r.targets, t)
		}
		for _, id := range spec.Monitors {
			if _, ok := c.GetBlock(id); !ok {
				return fmt.Errorf("target %q: monitor block %q not found", spec.Name, id)
			}
			r.monitors = append(r.monitors, monitor{target: t, blockID: id})
		}
	}

	r.logger.Info("project loaded",
		"project", p.Name,
		"run", r.runID,
		"targets", len(r.targets),
	)
	return nil
}

// Targets returns the targets in layer order, stage first.
func (r *Runtime) Targets() []*Target {
	return slices.Clone(r.targets)
}

// Target returns the original target with the given name.
func (r *Runtime) Target(name string) *Target {
	for _, t := range r.targets {
		if t.name == name && t.IsOriginal() {
			return t
		}
	}
	return nil
}

// Stage returns the stage, if the project has one.
func (r *Runtime) Stage() *Target {
	for _, t := range r.targets {
		if t.stage {
			return t
		}
	}
	return nil
}

// Threads returns the live threads in execution order.
func (r *Runtime) Threads() []*engine.Thread {
	return slices.Clone(r.threads)
}

// executionOrder returns targets topmost sprite first, stage last.
func (r *Runtime) executionOrder() []*Target {
	out := slices.Clone(r.targets)
	slices.Reverse(out)
	return out
}

// StartHats implements engine.Host. Hats whose classification asks to
// restart existing threads replace a running thread for the same script
// in place; others leave it alone and start nothing for that script.
func (r *Runtime) StartHats(opcode string, match map[string]string, target engine.Target) []*engine.Thread {
	info, ok := r.registry.Hat(opcode)
	if !ok {
		return nil
	}

	targets := r.executionOrder()
	if target != nil {
		targets = nil
		for _, t := range r.targets {
			if t.ID() == target.ID() {
				targets = append(targets, t)
			}
		}
	}

	var started []*engine.Thread
	for _, t := range targets {
		for _, top := range t.blocks.ScriptsWithHat(opcode) {
			b, ok := t.blocks.GetBlock(top)
			if !ok || !fieldsMatch(b, match) {
				continue
			}
			if th := r.startHat(t, top, info); th != nil {
				started = append(started, th)
			}
		}
	}
	return started
}

func fieldsMatch(b *ir.Block, match map[string]string) bool {
	for name, want := range match {
		f, ok := b.Fields.Get(name)
		if !ok || !ir.EqualFold(ir.ToString(f.Value), want) {
			return false
		}
	}
	return true
}

func (r *Runtime) startHat(t *Target, top string, info engine.HatInfo) *engine.Thread {
	id := ir.ThreadID(t.ID(), top)
	for i, th := range r.threads {
		if th.ID() != id || th.Status() == engine.StatusDone || th.IsStackClick() || th.IsUpdateMonitor() {
			continue
		}
		if !info.RestartExistingThreads {
			return nil
		}
		th.Kill()
		fresh := r.newThread(t, top)
		r.threads[i] = fresh
		return fresh
	}
	th := r.newThread(t, top)
	r.threads = append(r.threads, th)
	return th
}

func (r *Runtime) newThread(t *Target, top string, opts ...engine.ThreadOption) *engine.Thread {
	th := engine.NewThread(r.env, t, top, opts...)
	r.record(EventThreadStart, th.ID(), top, nil, "")
	r.logger.Debug("thread started", "thread", th.ID(), "target", t.Name())
	return th
}

// StopAll implements engine.Host: every thread is killed and every clone
// removed.
func (r *Runtime) StopAll() {
	for _, th := range r.threads {
		th.Kill()
	}
	r.threads = nil
	r.asker.Clear()
	r.targets = slices.DeleteFunc(r.targets, func(t *Target) bool { return !t.IsOriginal() })
}

// StopForTarget implements engine.Host.
func (r *Runtime) StopForTarget(target engine.Target, except *engine.Thread) {
	for _, th := range r.threads {
		if th != except && th.Target().ID() == target.ID() {
			th.Kill()
		}
	}
}

// IOQuery implements engine.Host. Unknown devices answer nil.
func (r *Runtime) IOQuery(device, fn string, args ...ir.Value) (ir.Value, error) {
	d, ok := r.devices[device]
	if !ok {
		return nil, nil
	}
	return d.Query(fn, args...)
}

// IOAwait implements engine.Host. Async devices settle their own
// futures; a plain device function runs on its own goroutine. Unknown
// devices answer nil at once.
func (r *Runtime) IOAwait(device, fn string, args ...ir.Value) (*engine.Future, error) {
	d, ok := r.devices[device]
	if !ok {
		return engine.Resolved(nil), nil
	}
	if ad, ok := d.(AsyncDevice); ok {
		return ad.Await(fn, args...)
	}
	return engine.Go(func() (ir.Value, error) {
		return d.Query(fn, args...)
	}), nil
}

// IsActiveThread implements engine.Host.
func (r *Runtime) IsActiveThread(th *engine.Thread) bool {
	return th.Status() != engine.StatusDone && slices.Contains(r.threads, th)
}

// IsWaitingThread implements engine.Host. A thread the runtime no longer
// runs counts as waiting.
func (r *Runtime) IsWaitingThread(th *engine.Thread) bool {
	switch th.Status() {
	case engine.StatusPromiseWait, engine.StatusYieldTick:
		return true
	}
	return !r.IsActiveThread(th)
}

// RequestRedraw implements engine.Host.
func (r *Runtime) RequestRedraw() {
	r.redraw = true
}

// GreenFlag stops everything, resets the project timer and starts every
// flag hat.
func (r *Runtime) GreenFlag() []*engine.Thread {
	r.StopAll()
	r.timer.Reset()
	return r.StartHats("event_whenflagclicked", nil, nil)
}

// KeyPress records a key press and starts the hats for that key and for
// "any".
func (r *Runtime) KeyPress(key string) []*engine.Thread {
	r.keyboard.Post(key, true)
	started := r.StartHats("event_whenkeypressed", map[string]string{"KEY_OPTION": key}, nil)
	return append(started, r.StartHats("event_whenkeypressed", map[string]string{"KEY_OPTION": "any"}, nil)...)
}

// Broadcast starts the receivers of a message.
func (r *Runtime) Broadcast(name string) []*engine.Thread {
	return r.StartHats("event_whenbroadcastreceived", map[string]string{"BROADCAST_OPTION": name}, nil)
}

// ToggleScript starts the script at top as a stack click, or stops it if
// it is already running.
func (r *Runtime) ToggleScript(targetName, top string) (*engine.Thread, error) {
	t := r.Target(targetName)
	if t == nil {
		return nil, fmt.Errorf("target %q not found", targetName)
	}
	if _, ok := t.blocks.GetBlock(top); !ok {
		return nil, fmt.Errorf("target %q: block %q not found", targetName, top)
	}
	id := ir.ThreadID(t.ID(), top)
	for _, th := range r.threads {
		if th.ID() == id && th.IsStackClick() && th.Status() != engine.StatusDone {
			th.Kill()
			return nil, nil
		}
	}
	th := r.newThread(t, top, engine.StackClick())
	r.threads = append(r.threads, th)
	return th, nil
}

// addClone creates a clone of src placed after it and starts its
// "when I start as a clone" hats.
func (r *Runtime) addClone(src *Target) *Target {
	r.cloneSeq++
	c := src.clone(fmt.Sprintf("%s#%d", src.name, r.cloneSeq))
	i := slices.Index(r.targets, src)
	r.targets = slices.Insert(r.targets, i+1, c)
	r.StartHats("control_start_as_clone", nil, c)
	return c
}

// disposeTarget removes a clone and stops its threads.
func (r *Runtime) disposeTarget(t *Target) {
	r.StopForTarget(t, nil)
	r.targets = slices.DeleteFunc(r.targets, func(x *Target) bool { return x == t })
}
