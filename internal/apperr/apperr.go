// Package apperr classifies failures of the upload workflow so that callers
// can tell who has to act on them: the user, the operator or nobody.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindStorage       Kind = "storage"
	KindDatabase      Kind = "database"
	KindEmail         Kind = "email_dispatch"
	KindCapture       Kind = "capture"
	KindUnauthorized  Kind = "unauthenticated"
	KindForbidden     Kind = "forbidden"
	KindNotFound      Kind = "not_found"
	KindTooLarge      Kind = "too_large"
)

// Error wraps a cause with the operation that failed and its class.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an *Error. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op string, err error) error    { return E(KindValidation, op, err) }
func Configuration(op string, err error) error { return E(KindConfiguration, op, err) }
func Storage(op string, err error) error       { return E(KindStorage, op, err) }
func Database(op string, err error) error      { return E(KindDatabase, op, err) }
func Email(op string, err error) error         { return E(KindEmail, op, err) }
func Capture(op string, err error) error       { return E(KindCapture, op, err) }

// KindOf returns the outermost kind attached to err, or "" when none is.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// HTTPStatus maps an error to the status code returned by owner-facing endpoints.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
