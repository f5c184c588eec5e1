// Package apperror defines the failure taxonomy shared by the quote service
// and the HTTP layer.
package apperror

import (
	"errors"
	"net/http"
)

type Kind string

const (
	Validation Kind = "VALIDATION"
	NotFound   Kind = "NOT_FOUND"
	Storage    Kind = "STORAGE"
	Upstream   Kind = "UPSTREAM"
)

// AppError is a classified failure. Message is safe to show to callers;
// cause is for logs only.
type AppError struct {
	kind    Kind
	message string
	cause   error
}

func New(kind Kind, message string, cause error) *AppError {
	return &AppError{kind: kind, message: message, cause: cause}
}

func NewValidation(message string) *AppError { return New(Validation, message, nil) }
func NewNotFound(message string) *AppError   { return New(NotFound, message, nil) }

func NewStorage(message string, cause error) *AppError  { return New(Storage, message, cause) }
func NewUpstream(message string, cause error) *AppError { return New(Upstream, message, cause) }

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *AppError) Unwrap() error   { return e.cause }
func (e *AppError) Kind() Kind      { return e.kind }
func (e *AppError) Message() string { return e.message }

func (e *AppError) HTTPStatus() int {
	switch e.kind {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// As returns the first *AppError in err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf classifies err; unclassified errors count as Storage failures.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.kind
	}
	return Storage
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.kind == kind
}
