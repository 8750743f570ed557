package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error by prepending additional text.
// The text can contain formatting parameters.
//
// The error kind of the wrapped error is preserved.
func Wrap(err error, msg string, v ...interface{}) error {
	if err == nil {
		return nil
	}
	msg = fmt.Sprintf(msg, v...)
	return fmt.Errorf("%v: %w", msg, err)
}

// As is errors.As from the standard library.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

type notFound struct {
	message string
}

// NewNotFound creates a new "not found" error.
func NewNotFound(s string, v ...interface{}) error {
	return asNotFound(fmt.Errorf(s, v...))
}

func (n notFound) Error() string {
	return n.message
}

func asNotFound(e error) error {
	return notFound{fmt.Sprintf("Not found: %v", e)}
}

// IsNotFound checks if the given error is a "not found" error.
func IsNotFound(err error) bool {
	var nf notFound
	return errors.As(err, &nf)
}

type validationError struct {
	message string
}

func (v validationError) Error() string {
	return v.message
}

// NewValidationError creates an error of from the given format string.
func NewValidationError(msg string, v ...interface{}) error {
	return validationError{fmt.Sprintf(msg, v...)}
}

// IsValidationError checks if the given error is a validation error.
func IsValidationError(err error) bool {
	var ve validationError
	return errors.As(err, &ve)
}

type unsupported struct {
	message string
}

func (u unsupported) Error() string {
	return u.message
}

// NewUnsupported creates an error for an unsupported file type or operation.
func NewUnsupported(msg string, v ...interface{}) error {
	return unsupported{"Unsupported: " + fmt.Sprintf(msg, v...)}
}

// IsUnsupported checks if the given error is an "unsupported" error.
func IsUnsupported(err error) bool {
	var u unsupported
	return errors.As(err, &u)
}
