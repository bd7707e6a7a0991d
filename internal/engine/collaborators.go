package engine

import (
	"github.com/roach88/blockvm/internal/ir"
)

// Container is the block-graph storage a script runs from. The engine only
// reads it; edits happen elsewhere and bump Generation, which invalidates
// every cached entry for the container.
type Container interface {
	GetBlock(id string) (*ir.Block, bool)

	// GetProcedureDefinition returns the ID of the procedures_definition
	// block for a procedure code.
	GetProcedureDefinition(procCode string) (string, bool)

	// GetProcedureParamNamesIdsAndDefaults returns a procedure's signature.
	GetProcedureParamNamesIdsAndDefaults(procCode string) (ir.ProcedureSignature, bool)

	// ForceNoGlow suppresses script highlighting for this container.
	ForceNoGlow() bool

	// Generation changes on every structural edit.
	Generation() uint64
}

// Target is a program instance: it owns a container and remembers the last
// predicate value of each edge-activated hat it runs.
type Target interface {
	ID() string
	Name() string
	IsStage() bool
	Blocks() Container
	HasEdgeActivatedValue(blockID string) bool

	// UpdateEdgeActivatedValue stores v and returns the previous value.
	UpdateEdgeActivatedValue(blockID string, v bool) bool
}

// Host is the frame driver surface primitives reach through Util.
type Host interface {
	// StartHats starts a thread for every script under a matching hat and
	// returns the threads it started. match filters on hat field values,
	// compared case-insensitively. A nil target means all targets.
	StartHats(opcode string, match map[string]string, target Target) []*Thread

	StopAll()

	// StopForTarget kills the target's threads except one.
	StopForTarget(target Target, except *Thread)

	// IOQuery calls a function on a named IO device.
	IOQuery(device, fn string, args ...ir.Value) (ir.Value, error)

	// IOAwait starts a call on a named IO device that completes later. The
	// future may settle on any goroutine.
	IOAwait(device, fn string, args ...ir.Value) (*Future, error)

	// IsActiveThread reports whether the driver still owns the thread.
	IsActiveThread(t *Thread) bool

	// IsWaitingThread reports whether the thread is blocked on something
	// other than its own work: an async result or a tick boundary.
	IsWaitingThread(t *Thread) bool

	RequestRedraw()
}

// MonitorUpdate is a watched value pushed to the monitor sink.
type MonitorUpdate struct {
	ID         string   `json:"id"`
	SpriteName string   `json:"sprite_name,omitempty"`
	Value      ir.Value `json:"value"`
}

// ReportSink receives values produced at a script's top block.
type ReportSink interface {
	// ReportValue shows the result of a clicked stack.
	ReportValue(blockID string, v ir.Value)

	// RequestUpdateMonitor pushes a watched value.
	RequestUpdateMonitor(u MonitorUpdate)
}

// TraceKind tags a trace event.
type TraceKind string

const (
	TraceStatus         TraceKind = "status"
	TraceHat            TraceKind = "hat"
	TraceProcedureEnter TraceKind = "procedure_enter"
	TraceProcedureExit  TraceKind = "procedure_exit"
	TraceReport         TraceKind = "report"
	TraceMonitor        TraceKind = "monitor"
)

// TraceEvent is one observable step of execution.
type TraceEvent struct {
	Kind     TraceKind
	ThreadID string
	BlockID  string
	Value    ir.Value
	Detail   string
}

// Tracer observes execution. Events are emitted from the driver goroutine
// only.
type Tracer interface {
	Trace(ev TraceEvent)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(ev TraceEvent)

// Trace calls f.
func (f TracerFunc) Trace(ev TraceEvent) {
	f(ev)
}
