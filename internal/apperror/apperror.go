package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrIntegrity  = errors.New("integrity error")
)

type AppError struct {
	Err     error  // category sentinel
	Message string // safe to show to the user
	Field   string // optional: field causing the error
	Cause   error  // optional: underlying error, server-side only
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Invalid is a validation failure carrying a cause for the logs.
func Invalid(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Cause:   cause,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Integrity marks failures that are fatal for the request: store down, missing secrets.
func Integrity(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrIntegrity,
		Message: message,
		Cause:   cause,
	}
}

// Message returns the user-facing message of err, or fallback when err carries none.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
