package engine

import (
	"slices"

	"github.com/roach88/blockvm/internal/ir"
)

// CallStack tracks the procedure definitions active on a thread, innermost
// last. A call is recursive when its definition is already on the stack.
//
// Recursion detection scans the whole stack rather than a bounded window:
// a recursive call is caught however deep the intermediate chain is.
type CallStack struct {
	frames []string
}

// Push records entry into a definition.
func (s *CallStack) Push(definitionID string) {
	s.frames = append(s.frames, definitionID)
}

// Pop removes the innermost frame. Popping an empty stack is a no-op.
func (s *CallStack) Pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Contains reports whether a definition is active.
func (s *CallStack) Contains(definitionID string) bool {
	return slices.Contains(s.frames, definitionID)
}

// Depth returns the number of active frames.
func (s *CallStack) Depth() int {
	return len(s.frames)
}

// Frames returns a copy of the active frames, outermost first.
func (s *CallStack) Frames() []string {
	return slices.Clone(s.frames)
}

// Reset drops every frame.
func (s *CallStack) Reset() {
	s.frames = nil
}

// CallContext holds the parameter bindings of one procedure call. A call
// always gets its own context, even with no parameters, so lookups never
// reach an enclosing call's bindings.
type CallContext struct {
	procCode string
	params   map[string]ir.Value
}

// NewCallContext creates the bindings for a call of procCode.
func NewCallContext(procCode string, params map[string]ir.Value) *CallContext {
	bound := make(map[string]ir.Value, len(params))
	for k, v := range params {
		bound[k] = v
	}
	return &CallContext{procCode: procCode, params: bound}
}

// ProcCode returns the called procedure's code.
func (c *CallContext) ProcCode() string {
	if c == nil {
		return ""
	}
	return c.procCode
}

// Param returns the binding for a parameter name. A nil context (top
// level of a script) binds nothing.
func (c *CallContext) Param(name string) (ir.Value, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.params[name]
	return v, ok
}
