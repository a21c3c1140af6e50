// Package errors provides structured error types for trussrig.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the editor core and the CLI
//   - Machine-readable codes for recompute warnings
//   - User-friendly error messages in the terminal UI
//
// # Error Codes
//
// Codes fall into two groups:
//   - INVALID_*, POINT_NOT_FOUND: mutation failures. The mutation is rejected
//     and the previous value is kept.
//   - DEGENERATE_GEOMETRY, UNCONNECTED_ROPE, INDETERMINATE_LOAD_CASE,
//     UNBOUNDED_TENSION: recompute conditions. They are reported as warnings
//     in a snapshot and never abort a recompute.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidChord, "chord %d out of range", chord)
//	if errors.Is(err, errors.ErrCodeInvalidChord) {
//	    // keep the previous chord
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidConfig, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidRole   Code = "INVALID_ROLE"
	ErrCodeInvalidChord  Code = "INVALID_CHORD"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodePointNotFound Code = "POINT_NOT_FOUND"

	// Recompute conditions (reported, never fatal)
	ErrCodeDegenerateGeometry Code = "DEGENERATE_GEOMETRY"
	ErrCodeUnconnectedRope    Code = "UNCONNECTED_ROPE"
	ErrCodeIndeterminateLoad  Code = "INDETERMINATE_LOAD_CASE"
	ErrCodeUnboundedTension   Code = "UNBOUNDED_TENSION"

	// Diagram output errors
	ErrCodeRenderFailed Code = "RENDER_FAILED"
	ErrCodeMissingTool  Code = "MISSING_TOOL"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

