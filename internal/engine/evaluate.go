package engine

import (
	"errors"

	"github.com/roach88/blockvm/internal/ir"
)

// chainCo runs a command chain: each block in next order, dropping every
// result but the last. Entries come from the cache and are shared; the
// position and the in-flight primitive are this coroutine's own.
type chainCo struct {
	thread *Thread
	ct     Container
	start  string
	call   *CallContext

	chain  []*Entry
	idx    int
	cur    Coroutine
	result ir.Value
}

// evaluate returns a coroutine executing the chain that starts at id.
// The chain is resolved on first resume, against the container's
// generation at that moment.
func (t *Thread) evaluate(ct Container, id string, call *CallContext) Coroutine {
	return &chainCo{thread: t, ct: ct, start: id, call: call}
}

func (c *chainCo) Resume() Step {
	t := c.thread
	if c.chain == nil {
		chain, err := t.env.cache.Chain(c.ct, c.start)
		if err != nil {
			return Fail(err)
		}
		c.chain = chain
	}

	for {
		if t.IsKilled() {
			return killedStep
		}
		if c.idx >= len(c.chain) {
			return Done(c.result)
		}
		e := c.chain[c.idx]

		if c.cur == nil {
			c.cur = c.invoke(e)
		}
		st := c.cur.Resume()
		switch st.Signal {
		case SignalDone:
		case SignalError:
			c.cur = nil
			return Fail(blockError(e, st.Err))
		default:
			return st
		}
		c.cur = nil
		c.idx++

		if e.IsHat {
			if !c.hatFires(e, st.Value) {
				return Done(nil)
			}
			t.env.trace(TraceEvent{Kind: TraceHat, ThreadID: t.id, BlockID: e.ID})
			return yieldStep
		}

		c.result = st.Value
		if e.Next == "" && st.Value != nil && c.start == t.topBlock {
			c.report(e, st.Value)
		}
	}
}

// invoke marks the block for highlighting and starts its primitive.
func (c *chainCo) invoke(e *Entry) Coroutine {
	t := c.thread
	if !c.ct.ForceNoGlow() {
		t.requestGlow = true
	}
	t.glowBlock = e.ID

	switch {
	case e.fn != nil:
		u := &Util{thread: t, call: c.call, entry: e}
		co := e.fn(&Args{entry: e, util: u}, u)
		if co == nil {
			return Return(nil)
		}
		return co
	case e.IsHat:
		return Return(ir.Bool(true))
	default:
		return Return(e.literal)
	}
}

// hatFires decides whether the thread continues past a hat. Plain hats
// need a truthy result; edge-activated hats need a rising edge against the
// value remembered by the target. Stack-click threads skip the edge check.
func (c *chainCo) hatFires(e *Entry, v ir.Value) bool {
	t := c.thread
	if !e.EdgeActivated {
		return ir.ToBool(v)
	}
	if t.stackClick {
		return true
	}
	now := ir.ToBool(v)
	had := t.target.HasEdgeActivatedValue(e.ID)
	old := t.target.UpdateEdgeActivatedValue(e.ID, now)
	if had {
		return !old && now
	}
	return now
}

func (c *chainCo) report(e *Entry, v ir.Value) {
	t := c.thread
	sink := t.env.sink
	if t.stackClick {
		if sink != nil {
			sink.ReportValue(e.ID, v)
		}
		t.env.trace(TraceEvent{Kind: TraceReport, ThreadID: t.id, BlockID: e.ID, Value: v})
	}
	if t.updateMonitor {
		update := MonitorUpdate{ID: e.ID, Value: v}
		if !t.target.IsStage() {
			update.SpriteName = t.target.Name()
		}
		if sink != nil {
			sink.RequestUpdateMonitor(update)
		}
		t.env.trace(TraceEvent{Kind: TraceMonitor, ThreadID: t.id, BlockID: e.ID, Value: v})
	}
}

// blockError attaches block context to a primitive failure. Errors that
// already carry a RuntimeError pass through unchanged.
func blockError(e *Entry, err error) error {
	var re *RuntimeError
	if errors.As(err, &re) {
		return err
	}
	return NewPrimitiveError(e.ID, e.Opcode, err)
}
