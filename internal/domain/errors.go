// Package domain holds the quote model and the errors the rest of the
// program reports in. Adapters decide how each error is shown: an HTTP
// status, a CLI message, a failed sync round.
package domain

import (
	"errors"
	"fmt"
)

// Kinds of failure. Every error type below unwraps to one of these, so
// callers branch with errors.Is or the Is helpers.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrFormat      = errors.New("invalid format")
	ErrUnavailable = errors.New("unavailable")
)

// NotFoundError names what was looked up. Key may be empty.
type NotFoundError struct {
	Entity string
	Key    string
}

func NewNotFoundError(entity, key string) error {
	return &NotFoundError{Entity: entity, Key: key}
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.Entity + " not found"
	}

	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError rejects user input. Field is empty when the rule spans
// more than one field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}

	return "invalid " + e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FormatError rejects an imported document. Index is the offending record,
// or -1 when the document as a whole is wrong.
type FormatError struct {
	Index  int
	Reason string
}

// NewFormatError rejects the whole document.
func NewFormatError(reason string) error {
	return &FormatError{Index: -1, Reason: reason}
}

// NewRecordFormatError rejects the record at index.
func NewRecordFormatError(index int, reason string) error {
	return &FormatError{Index: index, Reason: reason}
}

func (e *FormatError) Error() string {
	if e.Index < 0 {
		return "invalid format: " + e.Reason
	}

	return fmt.Sprintf("invalid format: record %d: %s", e.Index, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// UnavailableError reports a remote that could not be reached or answered
// with something unusable. The next sync round tries again.
type UnavailableError struct {
	Service string
	Reason  string
}

func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return e.Service + " unavailable"
	}

	return e.Service + " unavailable: " + e.Reason
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool  { return errors.Is(err, ErrValidation) }
func IsFormat(err error) bool      { return errors.Is(err, ErrFormat) }
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
