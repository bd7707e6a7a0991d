package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roach88/blockvm/internal/ir"
)

// Status is a thread's scheduling state.
type Status int

const (
	// StatusRunning: steppable; the default state.
	StatusRunning Status = iota

	// StatusPromiseWait: suspended on an async result. Only the result's
	// settlement re-arms it.
	StatusPromiseWait

	// StatusYield: suspended for the rest of the current pass; re-armed by
	// the next Step.
	StatusYield

	// StatusYieldTick: suspended until the driver's next tick (BeginTick).
	StatusYieldTick

	// StatusDone: terminal. The thread holds no coroutine and never runs
	// again.
	StatusDone
)

var statusNames = [...]string{
	StatusRunning:     "running",
	StatusPromiseWait: "promise_wait",
	StatusYield:       "yield",
	StatusYieldTick:   "yield_tick",
	StatusDone:        "done",
}

func (s Status) String() string {
	if int(s) < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

type asyncState int

const (
	asyncNone asyncState = iota
	asyncResolved
	asyncRejected
)

// asyncResult is the slot a settled future writes into.
type asyncResult struct {
	state asyncState
	value ir.Value
	err   error
}

// Thread runs one script on one target.
//
// Thread-safety model:
//   - Step, Kill, BeginTick: driver goroutine only
//   - future settlement: any goroutine; touches only status and the async
//     slot, under mu
//   - Status, IsKilled: safe from any goroutine
type Thread struct {
	id            string
	env           *Env
	target        Target
	container     Container
	topBlock      string
	stackClick    bool
	updateMonitor bool

	mu     sync.Mutex
	status Status
	async  asyncResult

	killed atomic.Bool

	// Owned by the driver goroutine.
	root        Coroutine
	resumeWith  asyncResult
	warpTimer   *Timer
	callStack   CallStack
	result      ir.Value
	glowBlock   string
	requestGlow bool
}

// ThreadOption configures a thread at creation.
type ThreadOption func(*Thread)

// StackClick marks a thread started by clicking a script: its final value
// is reported and edge-activated hats fire unconditionally.
func StackClick() ThreadOption {
	return func(t *Thread) {
		t.stackClick = true
	}
}

// UpdateMonitor marks a thread that refreshes a watched value.
func UpdateMonitor() ThreadOption {
	return func(t *Thread) {
		t.updateMonitor = true
	}
}

// NewThread creates a thread for the script at topBlock in the target's
// container. The script is resolved on the first Step.
func NewThread(env *Env, target Target, topBlock string, opts ...ThreadOption) *Thread {
	t := &Thread{
		id:        ir.ThreadID(target.ID(), topBlock),
		env:       env,
		target:    target,
		container: target.Blocks(),
		topBlock:  topBlock,
		status:    StatusRunning,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.root = t.evaluate(t.container, topBlock, nil)
	if !t.container.ForceNoGlow() {
		t.glowBlock = topBlock
		t.requestGlow = true
	}
	return t
}

// ID returns the thread identity: target ID and top block ID.
func (t *Thread) ID() string { return t.id }

// Target returns the program instance running the thread.
func (t *Thread) Target() Target { return t.target }

// TopBlock returns the ID of the script's first block.
func (t *Thread) TopBlock() string { return t.topBlock }

// IsStackClick reports whether the thread was started by a click.
func (t *Thread) IsStackClick() bool { return t.stackClick }

// IsUpdateMonitor reports whether the thread refreshes a monitor.
func (t *Thread) IsUpdateMonitor() bool { return t.updateMonitor }

// Status returns the current state.
func (t *Thread) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// IsKilled reports whether Kill was called.
func (t *Thread) IsKilled() bool {
	return t.killed.Load()
}

// Result returns the value the script finished with, if any.
func (t *Thread) Result() ir.Value {
	return t.result
}

// CallDepth returns the number of active procedure calls.
func (t *Thread) CallDepth() int {
	return t.callStack.Depth()
}

// InWarp reports whether the thread is inside a warp-mode call whose
// budget has not run out.
func (t *Thread) InWarp() bool {
	return t.warpTimer != nil && t.warpTimer.Elapsed() <= t.env.warpTime
}

// Glow returns the block to highlight this frame and whether the script
// asked to be highlighted at all.
func (t *Thread) Glow() (blockID string, requested bool) {
	return t.glowBlock, t.requestGlow
}

// BeginTick re-arms a thread parked on YieldTick. The driver calls it once
// at the start of every tick.
func (t *Thread) BeginTick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusYieldTick {
		t.status = StatusRunning
	}
}

// Step resumes the script until it suspends or finishes.
//
// A Yield status is re-armed on entry. While in warp mode with budget left,
// plain yields do not end the step. The async slot is consumed before every
// resumption, so a coroutine sees a settlement at most once.
//
// Returns the error of a failed primitive. The thread is already Done when
// that happens; the driver logs it and carries on.
func (t *Thread) Step() error {
	if t.killed.Load() || t.root == nil {
		return nil
	}

	t.mu.Lock()
	if t.status == StatusYield {
		t.status = StatusRunning
	}
	t.mu.Unlock()

	if t.warpTimer != nil {
		t.warpTimer.Restart()
	}

	for t.Status() == StatusRunning {
		t.resumeWith = t.takeAsync()
		st := t.root.Resume()
		if t.killed.Load() {
			return nil
		}

		switch st.Signal {
		case SignalYield:
			if t.InWarp() {
				continue
			}
			t.setStatus(StatusYield)
		case SignalYieldTick:
			t.setStatus(StatusYieldTick)
		case SignalAwait:
			t.await(st.Future)
		case SignalDone, SignalStop:
			t.result = st.Value
			t.retire()
		case SignalKilled:
			t.Kill()
		case SignalError:
			t.Kill()
			return fmt.Errorf("thread %s: %w", t.id, st.Err)
		default:
			t.Kill()
			return fmt.Errorf("thread %s: unknown signal %v", t.id, st.Signal)
		}
	}
	return nil
}

// Kill stops the thread unconditionally and releases everything it holds.
// Idempotent; a settlement arriving later is ignored.
func (t *Thread) Kill() {
	if !t.killed.CompareAndSwap(false, true) {
		return
	}
	t.retire()
}

// retire moves the thread to Done and drops its coroutine, call state and
// warp timer.
func (t *Thread) retire() {
	t.mu.Lock()
	prev := t.status
	t.status = StatusDone
	t.async = asyncResult{}
	t.mu.Unlock()

	t.root = nil
	t.resumeWith = asyncResult{}
	t.warpTimer = nil
	t.callStack.Reset()
	t.requestGlow = false

	if prev != StatusDone {
		t.env.trace(TraceEvent{Kind: TraceStatus, ThreadID: t.id, BlockID: t.topBlock, Value: t.result, Detail: StatusDone.String()})
	}
}

func (t *Thread) setStatus(s Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

func (t *Thread) takeAsync() asyncResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.async
	t.async = asyncResult{}
	return r
}

// await parks the thread on f. The status is set before subscribing
// because an already settled future runs the callback immediately.
func (t *Thread) await(f *Future) {
	t.setStatus(StatusPromiseWait)
	if f == nil {
		t.settle(asyncResult{state: asyncResolved})
		return
	}
	f.Then(func(v ir.Value, err error) {
		if err != nil {
			t.settle(asyncResult{state: asyncRejected, err: err})
			return
		}
		t.settle(asyncResult{state: asyncResolved, value: v})
	})
}

func (t *Thread) settle(r asyncResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPromiseWait || t.killed.Load() {
		return
	}
	t.async = r
	t.status = StatusRunning
}
