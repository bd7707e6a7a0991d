package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while compiling or running a
// script.
//
// Runtime errors include:
//   - Unknown opcode: no primitive, hat or shadow literal for a block
//   - Missing block: an ID in the graph does not resolve
//   - Chain cycle: a next chain loops back on itself
//   - Primitive failure: a primitive returned an error
//   - Async rejection: an awaited future settled with a failure nobody handled
//
// Stops and kills are control flow, never RuntimeErrors.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// BlockID identifies the offending block, when known.
	BlockID string

	// Opcode is the offending block's opcode, when known.
	Opcode string

	// ThreadID identifies the thread that hit the error, when known.
	ThreadID string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownOpcode indicates a block whose opcode cannot be dispatched.
	ErrCodeUnknownOpcode RuntimeErrorCode = "UNKNOWN_OPCODE"

	// ErrCodeMissingBlock indicates a dangling block reference.
	ErrCodeMissingBlock RuntimeErrorCode = "MISSING_BLOCK"

	// ErrCodeChainCycle indicates a next chain that revisits a block.
	ErrCodeChainCycle RuntimeErrorCode = "CHAIN_CYCLE"

	// ErrCodePrimitiveFailed indicates a primitive returned an error.
	ErrCodePrimitiveFailed RuntimeErrorCode = "PRIMITIVE_FAILED"

	// ErrCodeAsyncRejected indicates an awaited future was rejected.
	ErrCodeAsyncRejected RuntimeErrorCode = "ASYNC_REJECTED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.BlockID != "" {
		msg += fmt.Sprintf(" (block=%s", e.BlockID)
		if e.Opcode != "" {
			msg += fmt.Sprintf(", opcode=%s", e.Opcode)
		}
		msg += ")"
	}
	if e.ThreadID != "" {
		msg += fmt.Sprintf(" [thread=%s]", e.ThreadID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsUnknownOpcode returns true if the error is an unknown opcode error.
// Uses errors.As to handle wrapped errors.
func IsUnknownOpcode(err error) bool {
	return hasCode(err, ErrCodeUnknownOpcode)
}

// IsMissingBlock returns true if the error is a missing block error.
func IsMissingBlock(err error) bool {
	return hasCode(err, ErrCodeMissingBlock)
}

// IsChainCycle returns true if the error is a chain cycle error.
func IsChainCycle(err error) bool {
	return hasCode(err, ErrCodeChainCycle)
}

// IsAsyncRejected returns true if the error came from a rejected future.
func IsAsyncRejected(err error) bool {
	return hasCode(err, ErrCodeAsyncRejected)
}

// NewUnknownOpcodeError creates a RuntimeError for an undispatchable block.
func NewUnknownOpcodeError(blockID, opcode string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownOpcode,
		Message: fmt.Sprintf("no primitive, hat or literal for opcode %q", opcode),
		BlockID: blockID,
		Opcode:  opcode,
	}
}

// NewMissingBlockError creates a RuntimeError for a dangling reference.
func NewMissingBlockError(blockID string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeMissingBlock,
		Message: "block not found",
		BlockID: blockID,
	}
}

// NewChainCycleError creates a RuntimeError for a looping next chain.
func NewChainCycleError(startID, blockID string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeChainCycle,
		Message: fmt.Sprintf("next chain from %s revisits a block", startID),
		BlockID: blockID,
	}
}

// NewPrimitiveError wraps an error returned by a primitive.
func NewPrimitiveError(blockID, opcode string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodePrimitiveFailed,
		Message: "primitive failed",
		BlockID: blockID,
		Opcode:  opcode,
		Err:     err,
	}
}

// NewAsyncRejectedError wraps the failure of an awaited future.
func NewAsyncRejectedError(err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeAsyncRejected,
		Message: "awaited result was rejected",
		Err:     err,
	}
}
