// Package apperr carries the error taxonomy shared by the store, the
// real-time core and the REST layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindConflict
	KindStorage
	KindTranslation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	case KindTranslation:
		return "translation"
	default:
		return "internal"
	}
}

// Error is a categorized failure with the HTTP status it maps to.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, status int, msg string, err error) *Error {
	return &Error{Kind: kind, Status: status, Message: msg, Err: err}
}

func Validation(msg string, err error) *Error {
	return newErr(KindValidation, http.StatusBadRequest, msg, err)
}

func Unauthorized(msg string, err error) *Error {
	return newErr(KindUnauthorized, http.StatusUnauthorized, msg, err)
}

func NotFound(msg string, err error) *Error {
	return newErr(KindNotFound, http.StatusNotFound, msg, err)
}

func Conflict(msg string, err error) *Error {
	return newErr(KindConflict, http.StatusConflict, msg, err)
}

func Storage(msg string, err error) *Error {
	return newErr(KindStorage, http.StatusInternalServerError, msg, err)
}

func Translation(msg string, err error) *Error {
	return newErr(KindTranslation, http.StatusInternalServerError, msg, err)
}

func Internal(msg string, err error) *Error {
	return newErr(KindInternal, http.StatusInternalServerError, msg, err)
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "internal server error"
}
