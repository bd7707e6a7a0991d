package engine

import (
	"time"

	"github.com/roach88/blockvm/internal/ir"
)

// Util is the execution handle a primitive receives: its thread, the
// active call context and the block being run.
type Util struct {
	thread *Thread
	call   *CallContext
	entry  *Entry
}

// Thread returns the running thread.
func (u *Util) Thread() *Thread { return u.thread }

// Target returns the program instance running the block.
func (u *Util) Target() Target { return u.thread.target }

// BlockID returns the ID of the block being run.
func (u *Util) BlockID() string {
	if u.entry == nil {
		return ""
	}
	return u.entry.ID
}

// Call returns the innermost procedure call context, nil at top level.
func (u *Util) Call() *CallContext { return u.call }

// Yield suspends until the thread is next stepped.
func (u *Util) Yield() Coroutine {
	return Suspend(yieldStep)
}

// YieldTick suspends until the driver's next tick.
func (u *Util) YieldTick() Coroutine {
	return Suspend(yieldTickStep)
}

// Await suspends until f settles and completes with its value. A rejected
// future fails the coroutine.
func (u *Util) Await(f *Future) Coroutine {
	return u.AwaitSettled(f, func(v ir.Value, err error) Coroutine {
		if err != nil {
			re := NewAsyncRejectedError(err)
			re.BlockID = u.BlockID()
			re.ThreadID = u.thread.id
			return CoroutineFunc(func() Step { return Fail(re) })
		}
		return Return(v)
	})
}

// AwaitSettled suspends until f settles and continues with k, which sees
// either the value or the failure and decides what to do with it.
func (u *Util) AwaitSettled(f *Future, k func(ir.Value, error) Coroutine) Coroutine {
	waiting := false
	var next Coroutine
	return CoroutineFunc(func() Step {
		if next != nil {
			return next.Resume()
		}
		if !waiting {
			waiting = true
			return Step{Signal: SignalAwait, Future: f}
		}
		r := u.thread.resumeWith
		switch r.state {
		case asyncResolved:
			next = k(r.value, nil)
		case asyncRejected:
			next = k(nil, r.err)
		default:
			return Step{Signal: SignalAwait, Future: f}
		}
		return next.Resume()
	})
}

// StopThisScript unwinds the whole thread, carrying v as its final value.
func (u *Util) StopThisScript(v ir.Value) Coroutine {
	return CoroutineFunc(func() Step {
		return Step{Signal: SignalStop, Value: v, Scope: StopThread}
	})
}

// Return unwinds to the nearest procedure call, which completes with v.
// Outside any call it stops the thread.
func (u *Util) Return(v ir.Value) Coroutine {
	scope := StopProcedure
	if u.call == nil {
		scope = StopThread
	}
	return CoroutineFunc(func() Step {
		return Step{Signal: SignalStop, Value: v, Scope: scope}
	})
}

// KillThread stops the thread irrecoverably.
func (u *Util) KillThread() Coroutine {
	return CoroutineFunc(func() Step {
		return killedStep
	})
}

// GetParam reads a parameter from the innermost call context only.
func (u *Util) GetParam(name string) (ir.Value, bool) {
	return u.call.Param(name)
}

// ProcedureSignature returns a procedure's parameter names, IDs and
// defaults.
func (u *Util) ProcedureSignature(code string) (ir.ProcedureSignature, bool) {
	return u.thread.container.GetProcedureParamNamesIdsAndDefaults(code)
}

// StartTimer returns a timer on the runtime's time source.
func (u *Util) StartTimer() *Timer {
	return StartTimer(u.thread.env.time)
}

// Now returns the runtime's current time.
func (u *Util) Now() time.Time {
	return u.thread.env.time.Now()
}

// InWarp reports whether the thread is in warp mode with budget left.
func (u *Util) InWarp() bool {
	return u.thread.InWarp()
}

// StartHats starts every matching hat script and returns the new threads.
func (u *Util) StartHats(opcode string, match map[string]string, target Target) []*Thread {
	h := u.thread.env.host
	if h == nil {
		return nil
	}
	return h.StartHats(opcode, match, target)
}

// StopAll stops every thread, including this one.
func (u *Util) StopAll() {
	if h := u.thread.env.host; h != nil {
		h.StopAll()
	}
}

// StopOtherTargetThreads stops the target's other threads.
func (u *Util) StopOtherTargetThreads() {
	if h := u.thread.env.host; h != nil {
		h.StopForTarget(u.thread.target, u.thread)
	}
}

// IOQuery calls a function on a named IO device. Unknown devices and
// functions yield nil.
func (u *Util) IOQuery(device, fn string, args ...ir.Value) (ir.Value, error) {
	h := u.thread.env.host
	if h == nil {
		return nil, nil
	}
	return h.IOQuery(device, fn, args...)
}

// IOAwait calls an IO device function that completes later and suspends
// until it does, completing with its value. Without a host it completes
// with nil.
func (u *Util) IOAwait(device, fn string, args ...ir.Value) Coroutine {
	h := u.thread.env.host
	if h == nil {
		return Return(nil)
	}
	f, err := h.IOAwait(device, fn, args...)
	if err != nil {
		return CoroutineFunc(func() Step { return Fail(err) })
	}
	return u.Await(f)
}

// IsActiveThread reports whether the driver still runs th.
func (u *Util) IsActiveThread(th *Thread) bool {
	h := u.thread.env.host
	return h != nil && h.IsActiveThread(th)
}

// IsWaitingThread reports whether th is parked on an async result or a
// tick boundary.
func (u *Util) IsWaitingThread(th *Thread) bool {
	h := u.thread.env.host
	return h != nil && h.IsWaitingThread(th)
}

// RequestRedraw asks the driver to end the frame after this pass.
func (u *Util) RequestRedraw() {
	if h := u.thread.env.host; h != nil {
		h.RequestRedraw()
	}
}
