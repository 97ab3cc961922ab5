// Package errors provides structured error types for dslstructurizr.
//
// Every failure the preprocessor can hit while handling a diagram carries a
// machine-readable [Code]. The codes map onto the recovery policy of the
// pipeline:
//
//   - PARSE_ERROR, CONFIG_ERROR: the diagram is skipped with a warning
//   - RENDER_ERROR: the renderer rejected one diagram of a batch
//   - PROCESS_ERROR: the renderer process itself failed; the whole batch is lost
//   - MISSING_ARTIFACT: a placeholder points at an artifact that was never written
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfig, `"params" should be a mapping, got %T`, v)
//	if errors.Is(err, errors.ErrCodeConfig) {
//	    // warn and continue with the next diagram
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeProcess, origErr, "run %s", tool)
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
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidParam  Code = "INVALID_PARAM"

	// Diagram handling errors
	ErrCodeParse           Code = "PARSE_ERROR"
	ErrCodeConfig          Code = "CONFIG_ERROR"
	ErrCodeRender          Code = "RENDER_ERROR"
	ErrCodeProcess         Code = "PROCESS_ERROR"
	ErrCodeMissingArtifact Code = "MISSING_ARTIFACT"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

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
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// Recoverable reports whether err only affects a single diagram.
// Parse, config, render and missing-artifact errors are warned about and
// skipped; everything else is surfaced to the caller.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeParse, ErrCodeConfig, ErrCodeRender, ErrCodeMissingArtifact:
		return true
	}
	return false
}
