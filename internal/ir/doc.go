// Package ir provides the data model shared by every blockvm package:
// block graph records, project definitions, and the sealed Value type
// that block primitives produce and consume.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// block model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - A nil Value means "no value" (a command produced nothing); Null is
//     an explicit empty literal
//   - Object keys are ordered by UTF-16 code units for canonical output
//   - Block inputs and fields keep their authored order
//   - Casts follow the block language's loose typing rules (see cast.go)
package ir
