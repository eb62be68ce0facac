// Package errors carries the typed error codes shared by services and the
// HTTP layer. A Code decides the response status and how much of the error
// a client may see.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// CodeInsufficientCapacity blocks an approval whose racks cannot hold the request.
	CodeInsufficientCapacity Code = "INSUFFICIENT_CAPACITY"
	// CodeNotScheduled rejects calendar work on an appointment without a slot.
	CodeNotScheduled Code = "NOT_SCHEDULED"
	// CodeCollaborator marks an unreachable calendar or email provider.
	CodeCollaborator Code = "COLLABORATOR_ERROR"
)

// Metadata is the public face of a Code.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

type flags uint8

const (
	retryable flags = 1 << iota
	showDetails
)

func meta(status int, public string, f flags) Metadata {
	return Metadata{
		HTTPStatus:     status,
		PublicMessage:  public,
		Retryable:      f&retryable != 0,
		DetailsAllowed: f&showDetails != 0,
	}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:           meta(http.StatusBadRequest, "validation failed", showDetails),
	CodeUnauthorized:         meta(http.StatusUnauthorized, "authentication required", 0),
	CodeForbidden:            meta(http.StatusForbidden, "access denied", 0),
	CodeNotFound:             meta(http.StatusNotFound, "resource not found", 0),
	CodeConflict:             meta(http.StatusConflict, "conflict detected", 0),
	CodeStateConflict:        meta(http.StatusUnprocessableEntity, "state transition disallowed", showDetails),
	CodeIdempotency:          meta(http.StatusConflict, "idempotency key reused", showDetails),
	CodeInternal:             meta(http.StatusInternalServerError, "internal server error", retryable),
	CodeDependency:           meta(http.StatusServiceUnavailable, "dependency unavailable", retryable|showDetails),
	CodeInsufficientCapacity: meta(http.StatusConflict, "insufficient rack capacity", showDetails),
	CodeNotScheduled:         meta(http.StatusUnprocessableEntity, "appointment not scheduled", 0),
	CodeCollaborator:         meta(http.StatusBadGateway, "external service unavailable", retryable),
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap keeps err reachable through errors.Is and errors.As. A nil err
// degrades to New.
func Wrap(code Code, err error, message string) *Error {
	e := New(code, message)
	e.cause = err
	return e
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches client-visible details. They are only rendered when
// the code's Metadata allows it.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	default:
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches any *Error with the same code, so errors.Is(err,
// New(CodeNotFound, "")) works without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t != nil && e.code == t.code
}

// IsCode reports whether err carries the given typed code anywhere in its chain.
func IsCode(err error, code Code) bool {
	return stdErrors.Is(err, &Error{code: code})
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Retryable reports whether a caller may retry the failed operation.
// Untyped errors are treated as internal and therefore retryable.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return MetadataFor(As(err).Code()).Retryable
}
