// Package errors provides structured error types for the modlayout engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, HTTP API and library callers
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The engine's own failures fall into four categories:
//   - MALFORMED_INPUT: empty DNA, broken row or column structure
//   - NOT_FOUND: a catalogue lookup missed (module, vanilla filler, type code, candidate)
//   - LENGTH_MISMATCH: a layout cannot be serialized back to an equal-length DNA list
//   - ILLEGAL_GESTURE_STATE: a stretch operation was called out of sequence
//
// Collaborators (catalogue sources, caches, the HTTP API) additionally use
// INVALID_INPUT, NETWORK_ERROR, TIMEOUT and INTERNAL_ERROR.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "no vanilla module for %s", key)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // drop this alternative
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch catalogue %s", systemID)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Engine errors
	ErrCodeMalformedInput      Code = "MALFORMED_INPUT"
	ErrCodeNotFound            Code = "NOT_FOUND"
	ErrCodeLengthMismatch      Code = "LENGTH_MISMATCH"
	ErrCodeIllegalGestureState Code = "ILLEGAL_GESTURE_STATE"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// NotFound is shorthand for New(ErrCodeNotFound, ...).
func NotFound(format string, args ...any) *Error {
	return New(ErrCodeNotFound, format, args...)
}

// Malformed is shorthand for New(ErrCodeMalformedInput, ...).
func Malformed(format string, args ...any) *Error {
	return New(ErrCodeMalformedInput, format, args...)
}
