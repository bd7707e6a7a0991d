package engine

import (
	"fmt"

	"github.com/roach88/blockvm/internal/ir"
)

// SignalKind tags what a coroutine produced on one resumption.
// The set is closed; drivers switch over it exhaustively.
type SignalKind int

const (
	// SignalDone: the coroutine finished. Value carries its result,
	// nil when a command produced nothing.
	SignalDone SignalKind = iota

	// SignalYield: resume on the next step of this thread, not before.
	SignalYield

	// SignalYieldTick: resume no earlier than the driver's next tick.
	SignalYieldTick

	// SignalAwait: resume once Future settles. The settled outcome is
	// delivered through the thread's async result slot.
	SignalAwait

	// SignalStop: unwind to the boundary named by Scope, carrying Value.
	SignalStop

	// SignalKilled: stop unconditionally. Never absorbed below the thread.
	SignalKilled

	// SignalError: a primitive failed. Err is set; the thread surfaces it
	// to the driver.
	SignalError
)

var signalNames = [...]string{
	SignalDone:      "done",
	SignalYield:     "yield",
	SignalYieldTick: "yield_tick",
	SignalAwait:     "await",
	SignalStop:      "stop",
	SignalKilled:    "killed",
	SignalError:     "error",
}

func (k SignalKind) String() string {
	if int(k) < 0 || int(k) >= len(signalNames) {
		return fmt.Sprintf("signal(%d)", int(k))
	}
	return signalNames[k]
}

// StopScope names the boundary that absorbs a SignalStop.
type StopScope int

const (
	// StopThread unwinds the whole thread. Procedure frames on the way
	// run their cleanup and re-propagate.
	StopThread StopScope = iota

	// StopProcedure unwinds to the nearest procedure call, which
	// absorbs the stop and completes with its value.
	StopProcedure
)

// Step is the result of resuming a coroutine once.
type Step struct {
	Signal SignalKind
	Value  ir.Value
	Future *Future
	Scope  StopScope
	Err    error
}

// Finished reports whether the coroutine completed normally.
func (s Step) Finished() bool {
	return s.Signal == SignalDone
}

// Done is the step of a coroutine that completed with v.
func Done(v ir.Value) Step {
	return Step{Signal: SignalDone, Value: v}
}

// Fail is the step of a coroutine that failed with err.
func Fail(err error) Step {
	return Step{Signal: SignalError, Err: err}
}

var (
	yieldStep     = Step{Signal: SignalYield}
	yieldTickStep = Step{Signal: SignalYieldTick}
	killedStep    = Step{Signal: SignalKilled}
)
