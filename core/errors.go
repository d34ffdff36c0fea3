package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return "validation failed"
	}
	return err.Err.Error()
}

// Error is a recoverable business rule violation identified by a stable Code.
// Transports render the Code verbatim so clients can branch on it.
type Error struct {
	Code    string
	Message string
}

func NewError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func (err *Error) Error() string {
	return err.Message
}

// AsError returns the *Error at the root of err, if any.
func AsError(err error) (*Error, bool) {
	e, ok := errors.Cause(err).(*Error)
	return e, ok
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code string) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
