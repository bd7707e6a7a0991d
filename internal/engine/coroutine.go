package engine

import "github.com/roach88/blockvm/internal/ir"

// Coroutine is a resumable unit of work. Each Resume runs until the next
// suspension point or completion and reports which one it reached.
//
// A coroutine that returned a suspending Step must be resumed again to
// make progress. Once it returns SignalDone, SignalStop, SignalKilled or
// SignalError it must not be resumed.
type Coroutine interface {
	Resume() Step
}

// CoroutineFunc adapts a step function to Coroutine. The function owns
// its own state between calls.
type CoroutineFunc func() Step

// Resume calls f.
func (f CoroutineFunc) Resume() Step {
	return f()
}

type returnCo struct {
	v ir.Value
}

func (r returnCo) Resume() Step {
	return Done(r.v)
}

// Return is a coroutine that completes immediately with v.
func Return(v ir.Value) Coroutine {
	return returnCo{v: v}
}

// Suspend is a coroutine that produces s once and then completes with nil.
// Used for Yield and YieldTick.
func Suspend(s Step) Coroutine {
	done := false
	return CoroutineFunc(func() Step {
		if done {
			return Done(nil)
		}
		done = true
		return s
	})
}

// bind runs cur to completion, then continues with k(result).
type bind struct {
	cur Coroutine
	k   func(ir.Value) Coroutine
}

// Then sequences c with a continuation that receives c's result. Every
// suspension of c is propagated unchanged.
//
// Tail binds are flattened: when k returns another Then, its parts replace
// this one's, so loops written as recursive continuations run at constant
// depth.
func Then(c Coroutine, k func(ir.Value) Coroutine) Coroutine {
	return &bind{cur: c, k: k}
}

func (b *bind) Resume() Step {
	for {
		st := b.cur.Resume()
		if st.Signal != SignalDone || b.k == nil {
			return st
		}
		next := b.k(st.Value)
		if nb, ok := next.(*bind); ok {
			b.cur, b.k = nb.cur, nb.k
		} else {
			b.cur, b.k = next, nil
		}
	}
}

// Seq runs the coroutines in order and completes with the last result.
func Seq(cs ...Coroutine) Coroutine {
	if len(cs) == 0 {
		return Return(nil)
	}
	if len(cs) == 1 {
		return cs[0]
	}
	return Then(cs[0], func(ir.Value) Coroutine {
		return Seq(cs[1:]...)
	})
}

// Map transforms a coroutine's result.
func Map(c Coroutine, f func(ir.Value) ir.Value) Coroutine {
	return Then(c, func(v ir.Value) Coroutine {
		return Return(f(v))
	})
}

// Finally runs cleanup exactly once when c stops resuming, on every exit
// path: completion, stop, kill, or error.
func Finally(c Coroutine, cleanup func(Step)) Coroutine {
	ran := false
	return CoroutineFunc(func() Step {
		st := c.Resume()
		switch st.Signal {
		case SignalYield, SignalYieldTick, SignalAwait:
			return st
		}
		if !ran {
			ran = true
			cleanup(st)
		}
		return st
	})
}
