package engine

import (
	"github.com/roach88/blockvm/internal/ir"
)

// procCall runs one procedure call. Setup happens on the first resume:
// the recursion and warp policy is evaluated once, the definition is
// pushed, and the body chain starts under a fresh call context. The body
// runs under Finally, so every exit pops the definition and restores the
// caller's warp timer.
type procCall struct {
	thread *Thread
	code   string
	params map[string]ir.Value

	started   bool
	finished  bool
	defID     string
	savedWarp *Timer
	pending   bool
	body      Coroutine
}

// StartProcedure calls the procedure with the given code. A procedure with
// no definition completes immediately with nil.
//
// Before the body runs, the call may yield once:
//   - in warp mode with the budget spent, always
//   - otherwise, when the definition is not warp and the call is recursive
//
// Entering a warp definition outside warp mode starts the warp timer; a
// nested warp call keeps the running one, so the budget is cumulative.
//
// A stop scoped to the procedure ends the call with its value; a stop
// scoped to the thread propagates after cleanup.
func (u *Util) StartProcedure(code string, params map[string]ir.Value) Coroutine {
	return &procCall{thread: u.thread, code: code, params: params}
}

func (p *procCall) Resume() Step {
	t := p.thread
	if !p.started {
		p.started = true
		def, ok := t.container.GetProcedureDefinition(p.code)
		if !ok {
			p.finished = true
			return Done(nil)
		}
		p.defID = def
		p.setup()
	}
	if p.finished {
		return Done(nil)
	}

	if p.pending {
		p.pending = false
		return yieldStep
	}

	st := p.body.Resume()
	if st.Signal == SignalStop && st.Scope == StopProcedure {
		return Done(st.Value)
	}
	return st
}

func (p *procCall) setup() {
	t := p.thread
	recursive := t.callStack.Contains(p.defID)
	p.savedWarp = t.warpTimer

	switch {
	case t.warpTimer != nil && t.warpTimer.Elapsed() > t.env.warpTime:
		p.pending = true
	case definitionIsWarp(t.container, p.defID):
		if t.warpTimer == nil {
			t.warpTimer = StartTimer(t.env.time)
		}
	case recursive:
		p.pending = true
	}

	t.callStack.Push(p.defID)
	t.env.trace(TraceEvent{Kind: TraceProcedureEnter, ThreadID: t.id, BlockID: p.defID, Detail: p.code})

	p.body = Finally(t.evaluate(t.container, p.defID, NewCallContext(p.code, p.params)), p.exit)
}

func (p *procCall) exit(st Step) {
	t := p.thread
	p.finished = true
	if t.IsKilled() {
		return
	}
	t.callStack.Pop()
	t.warpTimer = p.savedWarp
	t.env.trace(TraceEvent{Kind: TraceProcedureExit, ThreadID: t.id, BlockID: p.defID, Value: st.Value, Detail: p.code})
}

// definitionIsWarp reads the warp flag from the prototype mutation of a
// procedures_definition block.
func definitionIsWarp(ct Container, defID string) bool {
	def, ok := ct.GetBlock(defID)
	if !ok {
		return false
	}
	in, ok := def.Inputs.Get("custom_block")
	if !ok || !in.HasBlock() {
		return false
	}
	proto, ok := ct.GetBlock(in.Block)
	if !ok || proto.Mutation == nil {
		return false
	}
	return bool(proto.Mutation.Warp)
}
