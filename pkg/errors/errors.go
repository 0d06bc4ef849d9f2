// Package errors provides structured error types for blik.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP feed
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (malformed block data, bad options)
//   - NOT_FOUND: A container query matched nothing
//   - PARSE: A file reader could not interpret its input
//   - INTERNAL_*: Unexpected internal errors
//
// # Typed Errors
//
// The block model raises a small closed set of typed errors, each carrying a
// [Code] so that [Is] and [GetCode] work uniformly:
//
//   - [ValidationError]: malformed shape, dtype or empty data at construction
//   - [ShapeMismatchError]: composite sub-blocks disagree on row count
//   - [ParseError]: recoverable reader failure, the dispatcher tries the next reader
//   - [ImmutableViewError]: mutation attempted on a view
//   - [NotFoundError]: container lookup matched nothing
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "unknown block kind: %s", kind)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeParse, origErr, "failed to read %s", path)
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
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidShape Code = "INVALID_SHAPE"
	ErrCodeInvalidDType Code = "INVALID_DTYPE"
	ErrCodeEmpty        Code = "EMPTY"
	ErrCodeInvalidPath  Code = "INVALID_PATH"
	ErrCodeInvalidName  Code = "INVALID_NAME"

	// Composite and container errors
	ErrCodeShapeMismatch   Code = "SHAPE_MISMATCH"
	ErrCodeImmutableView   Code = "IMMUTABLE_VIEW"
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeMissingMetadata Code = "MISSING_METADATA"

	// Collaborator errors
	ErrCodeParse       Code = "PARSE"
	ErrCodeUnsupported Code = "UNSUPPORTED"

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

// coder is implemented by every typed error in this package.
type coder interface {
	error
	Code() Code
}

// Is reports whether err has the given error code.
// It walks the error chain and matches the first *Error or typed error found.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case coder:
			return e.Code()
		}
		err = errors.Unwrap(err)
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

// As is a re-export of the standard library errors.As so callers importing this
// package under the name errors keep access to it.
func As(err error, target any) bool { return errors.As(err, target) }

// Unwrap is a re-export of the standard library errors.Unwrap.
func Unwrap(err error) error { return errors.Unwrap(err) }
