package errors

import (
	"fmt"
	"strings"
)

// Validation kinds reported by [ValidationError].
const (
	KindShape = "shape"
	KindDType = "dtype"
	KindEmpty = "empty"
)

// ValidationError reports malformed data handed to a block constructor or setter.
// It is raised immediately and never recovered locally.
type ValidationError struct {
	Block  string // block kind that rejected the data, e.g. "point"
	Kind   string // one of KindShape, KindDType, KindEmpty
	Detail string
}

// Validation creates a ValidationError with a formatted detail message.
func Validation(block, kind, format string, args ...any) *ValidationError {
	return &ValidationError{Block: block, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s data (%s): %s", e.Block, e.Kind, e.Detail)
}

// Code maps the validation kind to its error code.
func (e *ValidationError) Code() Code {
	switch e.Kind {
	case KindDType:
		return ErrCodeInvalidDType
	case KindEmpty:
		return ErrCodeEmpty
	default:
		return ErrCodeInvalidShape
	}
}

// ShapeMismatchError reports composite sub-blocks that disagree on row count.
type ShapeMismatchError struct {
	Block string // composite kind, e.g. "particle"
	Field string // offending sub-block field
	Len   int    // offending length
	Want  int    // length of the reference field
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: field %q has length %d, expected %d", e.Block, e.Field, e.Len, e.Want)
}

// Code returns ErrCodeShapeMismatch.
func (e *ShapeMismatchError) Code() Code { return ErrCodeShapeMismatch }

// ParseError signals that a reader could not interpret its input. Dispatchers
// recover it and try the next candidate reader for the same extension.
type ParseError struct {
	Format string
	Path   string
	Cause  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot parse %s as %s: %v", e.Path, e.Format, e.Cause)
	}
	return fmt.Sprintf("cannot parse %s as %s", e.Path, e.Format)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error { return e.Cause }

// Code returns ErrCodeParse.
func (e *ParseError) Code() Code { return ErrCodeParse }

// ImmutableViewError is returned when a mutating operation is attempted on a view.
type ImmutableViewError struct {
	Op string
}

// Error implements the error interface.
func (e *ImmutableViewError) Error() string {
	return fmt.Sprintf("cannot %s: view is immutable", e.Op)
}

// Code returns ErrCodeImmutableView.
func (e *ImmutableViewError) Code() Code { return ErrCodeImmutableView }

// NotFoundError is returned when a container lookup matches nothing.
type NotFoundError struct {
	Query []string
}

// NotFound creates a NotFoundError describing the failed query.
func NotFound(query ...string) *NotFoundError {
	return &NotFoundError{Query: query}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if len(e.Query) == 0 {
		return "no match found"
	}
	return "no match found for " + strings.Join(e.Query, ", ")
}

// Code returns ErrCodeNotFound.
func (e *NotFoundError) Code() Code { return ErrCodeNotFound }
