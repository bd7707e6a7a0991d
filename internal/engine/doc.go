// Package engine implements the blockvm block-graph interpreter.
//
// A script is a chain of blocks. The engine turns it into a resumable
// coroutine that a Thread steps until the script suspends or finishes.
//
// ARCHITECTURE:
//
// Coroutines:
// Every suspendable unit implements Coroutine: Resume runs to the next
// suspension point and returns a Step tagged with a SignalKind. Composite
// coroutines (chains, loops, procedure calls) pass every suspension
// through unchanged, so the thread only ever sees signals that bubbled up
// from the innermost primitive. Thread.Step is the trampoline.
//
// Dispatch cache:
// Cache compiles each block once per (container, block ID, generation):
// the primitive, hat classification, shadow literal, and one Thunk per
// input. A container edit bumps its generation; the next lookup discards
// the stale arena and rebuilds. Entries are immutable, so a resumption
// holding an old entry keeps working.
//
// Threads:
// Running, PromiseWait, Yield, YieldTick, Done. The driver steps threads
// from a single goroutine. Future settlement may arrive from any goroutine
// and only touches the thread's status and async slot.
//
// Procedures:
// Util.StartProcedure applies the warp and recursion policy once per call,
// runs the body under a fresh CallContext, and restores the caller's warp
// timer on every exit path.
//
// CRITICAL PATTERNS:
//
// Only stops and kills are absorbed by the engine. Every other failure is
// returned from Thread.Step; the driver logs it and kills the thread.
package engine
