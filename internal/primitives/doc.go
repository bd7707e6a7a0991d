// Package primitives is the block library: the opcodes scripts are built
// from, grouped into packages that load into an engine.Registry.
//
// Primitives reach their target only through small interfaces
// (VariableStore, Speaker, Cloner), so any program instance that
// implements them can run these blocks.
package primitives
