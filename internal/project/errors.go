package project

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Load error codes.
const (
	ErrCodeGeneric     = "E001" // unclassified failure
	ErrCodeNotFound    = "E002" // path does not exist
	ErrCodeFormat      = "E003" // unsupported file extension
	ErrCodeParse       = "E004" // YAML or JSON syntax/shape error
	ErrCodeLoadFailed  = "E005" // CUE instance failed to load
	ErrCodeBuildFailed = "E006" // CUE value failed to build or is not concrete
	ErrCodeInvalid     = "E007" // project failed validation
)

// Validation error codes.
const (
	ErrNoTargets        = "E200" // project has no targets
	ErrTargetName       = "E201" // empty or duplicate target name
	ErrMultipleStages   = "E202" // more than one stage
	ErrDuplicateBlock   = "E203" // block ID used twice in a target
	ErrDanglingRef      = "E204" // next/parent/input names a missing block
	ErrNextCycle        = "E205" // next chain loops back on itself
	ErrInputCycle       = "E206" // block reaches itself through inputs
	ErrMonitorRef       = "E207" // monitor names a missing block
	ErrEmptyOpcode      = "E208" // block without opcode
	ErrMissingPrototype = "E209" // definition without a prototype
)

// LoadError is a failure to turn a file into a project.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// cueError converts a CUE error into a LoadError positioned at its first
// reported location.
func cueError(code string, err error) *LoadError {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

// ValidationError is one problem in a project's block graphs.
type ValidationError struct {
	Code    string `json:"code"`
	Target  string `json:"target,omitempty"`
	Block   string `json:"block,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	switch {
	case e.Block != "":
		return fmt.Sprintf("[%s] %s/%s: %s", e.Code, e.Target, e.Block, e.Message)
	case e.Target != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Target, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}
