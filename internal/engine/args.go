package engine

import (
	"github.com/roach88/blockvm/internal/ir"
)

// Args is the argument record a primitive receives: the block's literal
// fields plus lazily evaluated inputs.
type Args struct {
	entry *Entry
	util  *Util
}

// BlockID returns the ID of the block being executed.
func (a *Args) BlockID() string {
	return a.entry.ID
}

// Opcode returns the opcode of the block being executed.
func (a *Args) Opcode() string {
	return a.entry.Opcode
}

// Field returns a field's value, or the empty string if the block has no
// such field.
func (a *Args) Field(name string) ir.Value {
	if f, ok := a.entry.fields.Get(name); ok && f.Value != nil {
		return f.Value
	}
	return ir.String("")
}

// FieldID returns the ID attached to a field (variable or broadcast ID).
func (a *Args) FieldID(name string) string {
	f, _ := a.entry.fields.Get(name)
	return f.ID
}

// Has reports whether the block has an input with this name.
func (a *Args) Has(name string) bool {
	_, ok := a.entry.inputs[name]
	return ok
}

// Input returns a coroutine evaluating the named input. Each call starts a
// fresh evaluation, so loops re-read their condition every iteration.
// A missing input completes immediately with nil.
func (a *Args) Input(name string) Coroutine {
	th, ok := a.entry.inputs[name]
	if !ok {
		return Return(nil)
	}
	return th(a.util)
}

// InputNames returns the input names in authored order.
func (a *Args) InputNames() []string {
	return a.entry.order
}

// Mutation returns a copy of the block's mutation, or an empty one.
func (a *Args) Mutation() ir.Mutation {
	if a.entry.mutation == nil {
		return ir.Mutation{}
	}
	return *a.entry.mutation
}
