package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of an admission failure.
type Kind string

const (
	// KindValidation indicates a missing or malformed required field.
	KindValidation Kind = "validation"

	// KindAuthorization indicates the event type is not permitted for the role.
	KindAuthorization Kind = "authorization"

	// KindAuthentication indicates a missing or mismatched credential.
	KindAuthentication Kind = "authentication"

	// KindReference indicates a compensating event without a correction reference.
	KindReference Kind = "reference"

	// KindBackend indicates a durable-store or ledger failure.
	KindBackend Kind = "backend"

	// KindUnsupported indicates the operation is not available in the current mode.
	KindUnsupported Kind = "unsupported"
)

// Error is the canonical error returned by the admission pipeline.
type Error struct {
	// Kind is the category of error
	Kind Kind `json:"kind"`

	// Message is the human-readable error message
	Message string `json:"error"`

	// Field names the offending request field (if applicable)
	Field string `json:"field,omitempty"`

	// Err is the underlying cause, for backend failures
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the HTTP status code for this error.
func (e *Error) HTTPStatusCode() int {
	switch e.Kind {
	case KindValidation, KindReference:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindUnsupported:
		return http.StatusNotImplemented
	case KindBackend:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewError creates a new error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithField records the request field that caused the error.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(message string) *Error {
	return NewError(KindValidation, message)
}

// ErrAuthorization creates an authorization error.
func ErrAuthorization(message string) *Error {
	return NewError(KindAuthorization, message)
}

// ErrAuthentication creates an authentication error.
func ErrAuthentication(message string) *Error {
	return NewError(KindAuthentication, message)
}

// ErrReference creates a correction-reference error.
func ErrReference(message string) *Error {
	return NewError(KindReference, message)
}

// ErrBackend wraps a persistence failure.
func ErrBackend(message string, cause error) *Error {
	return &Error{Kind: KindBackend, Message: message, Err: cause}
}

// ErrUnsupported creates an error for operations the active backend lacks.
func ErrUnsupported(message string) *Error {
	return NewError(KindUnsupported, message)
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
