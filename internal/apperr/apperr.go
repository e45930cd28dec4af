// Package apperr defines the error taxonomy shared by the state layer.
//
// Auth errors (InvalidCredentials, MissingFields, InvalidEmail) are meant to
// reach the caller so a form can show them. Transport and storage errors are
// absorbed by the component that hit them and only ever logged.
package apperr

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeMissingFields      Code = "MISSING_FIELDS"
	CodeInvalidEmail       Code = "INVALID_EMAIL"
	CodeNotAuthenticated   Code = "NOT_AUTHENTICATED"
	CodeTransportFailure   Code = "TRANSPORT_FAILURE"
	CodeStorageFailure     Code = "STORAGE_FAILURE"
)

// Error carries a machine-readable code, a message safe to show a user and
// an optional cause for logs.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"error"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports a match when target is an *Error with the same code, so
// errors.Is(err, apperr.ErrMissingFields) works on wrapped values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidCredentials = New(CodeInvalidCredentials, "invalid credentials")
	ErrMissingFields      = New(CodeMissingFields, "all fields are required")
	ErrInvalidEmail       = New(CodeInvalidEmail, "invalid email")
	ErrNotAuthenticated   = New(CodeNotAuthenticated, "not authenticated")
	ErrTransportFailure   = New(CodeTransportFailure, "catalog request failed")
	ErrStorageFailure     = New(CodeStorageFailure, "storage operation failed")
)

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalidCredentials, CodeNotAuthenticated:
		return http.StatusUnauthorized
	case CodeMissingFields, CodeInvalidEmail:
		return http.StatusBadRequest
	case CodeTransportFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
