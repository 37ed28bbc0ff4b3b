package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary.
type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindNotFound      Kind = "not_found"
	KindStateConflict Kind = "state_conflict"
	KindIntegrity     Kind = "integrity_error"
	KindInternal      Kind = "internal_error"
)

// Error carries a kind and a message meant to be shown to the user as is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validation reports malformed or missing input.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown entity.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports an operation that is not allowed in the current state.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindStateConflict, Message: fmt.Sprintf(format, args...)}
}

// Integrity reports an operation that would break a relation between entities.
func Integrity(format string, args ...any) *Error {
	return &Error{Kind: KindIntegrity, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Message returns the user-facing message of err. Errors without a kind get a
// generic text so internals are not leaked.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
