package engine

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks.
var (
	ErrParse      = errors.New("pattern parse error")
	ErrValidation = errors.New("validation error")
)

// ParseError reports a malformed pattern.
type ParseError struct {
	Pattern  string
	Position int
	Reason   string
}

func NewParseError(pattern string, pos int, format string, args ...any) *ParseError {
	return &ParseError{Pattern: pattern, Position: pos, Reason: fmt.Sprintf(format, args...)}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ParseError: %s at position %d in pattern %q", e.Reason, e.Position, e.Pattern)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// ValidationError reports malformed match input: a segment without a kind
// or an unusable field mapping entry.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "ValidationError: " + e.Reason
	}
	return fmt.Sprintf("ValidationError: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
