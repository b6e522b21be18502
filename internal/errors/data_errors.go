package errors

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when no dataset has been uploaded and sample mode is off.
// It is an informational condition, not a failure.
var ErrEmptyInput = errors.New("no dataset loaded")

// ErrDataFormat is the sentinel matched by every DataFormatError.
var ErrDataFormat = errors.New("data format error")

// DataFormatError reports a missing or malformed required column.
// Line is the 1-based input line (the header is line 1); zero when the
// problem concerns the header or the file as a whole.
type DataFormatError struct {
	Column string
	Line   int
	Value  string
	Reason string
	Cause  error
}

// Error implements the error interface
func (e *DataFormatError) Error() string {
	msg := "data format error"
	if e.Column != "" {
		msg += fmt.Sprintf(": column %q", e.Column)
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" (value %q)", e.Value)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause
func (e *DataFormatError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrDataFormat) true for any DataFormatError
func (e *DataFormatError) Is(target error) bool {
	return target == ErrDataFormat
}

// MissingColumnError creates the error for an absent required column
func MissingColumnError(column string) *DataFormatError {
	return &DataFormatError{Column: column, Reason: "required column is missing"}
}

// InvalidValueError creates the error for a cell that cannot be coerced
func InvalidValueError(column string, line int, value string, cause error) *DataFormatError {
	return &DataFormatError{Column: column, Line: line, Value: value, Reason: "value cannot be parsed", Cause: cause}
}
