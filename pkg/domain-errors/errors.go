// Package dErrors defines coded domain errors shared by all slices.
//
// Services construct these at precondition checks; handlers translate the
// code to an HTTP status via ToHTTPStatus. Infrastructure layers return
// pkg/platform/sentinel errors instead and services wrap them here, so the
// taxonomy stays stable regardless of the backing store.
package dErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of domain failure.
type Code string

const (
	// CodeNotFound means a referenced record is absent.
	CodeNotFound Code = "not_found"
	// CodeAlreadyExists means a create collided with an existing key.
	CodeAlreadyExists Code = "already_exists"
	// CodeInvalidState means a status or workflow precondition was violated.
	CodeInvalidState Code = "invalid_state"
	// CodeUnauthorized means the caller lacks the required role claim.
	CodeUnauthorized Code = "unauthorized"
	// CodeValidation means the input was malformed before any record was read.
	CodeValidation Code = "validation_error"
	// CodeConflict means the store rejected a concurrent conflicting write;
	// the caller should re-read and resubmit the whole operation.
	CodeConflict Code = "conflict"
	// CodeBadRequest means the request body could not be decoded.
	CodeBadRequest Code = "bad_request"
	// CodeInternal is everything the caller cannot fix.
	CodeInternal Code = "internal_error"
)

// Error is a domain error with a stable machine-readable code.
type Error struct {
	Code    Code
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// New constructs a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a domain error with a formatted message. Use it to carry
// record IDs and expected-vs-actual state so callers can retry with
// corrections.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a coded error so errors.Is still matches the
// underlying sentinel.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, wrapped: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodeInvalidState:
		return http.StatusUnprocessableEntity
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
