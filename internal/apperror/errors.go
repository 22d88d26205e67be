// Package apperror defines the errors the HTTP layer knows how to render.
// Each carries a status, a machine-readable code and a client-safe message;
// the wrapped Internal error is only ever logged.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// FieldError is a single {field: message} entry of a validation failure
type FieldError map[string]string

// AppError is a client-facing error
type AppError struct {
	Status   int
	Code     string
	Message  string
	Fields   []FieldError
	Internal error
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// Body returns what goes in the "error" member of the response
func (e *AppError) Body() any {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	return e.Message
}

// As extracts an *AppError from err
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// New builds an AppError with the given status, code and message
func New(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

// NewBadRequest creates a 400 error
func NewBadRequest(code, message string) *AppError {
	return New(http.StatusBadRequest, code, message)
}

// NewValidation creates a 400 error carrying per-field messages
func NewValidation(fields []FieldError) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_FAILED",
		Message: "Validation failed",
		Fields:  fields,
	}
}

// NewConflict creates a duplicate-key error. Clients expect it as a 400.
func NewConflict(code, message string) *AppError {
	return New(http.StatusBadRequest, code, message)
}

// NewUnauthorized creates a 401 error
func NewUnauthorized(code, message string) *AppError {
	return New(http.StatusUnauthorized, code, message)
}

// NewNotFound creates a 404 error
func NewNotFound(code, message string) *AppError {
	return New(http.StatusNotFound, code, message)
}

// NewInternal creates a 500 error wrapping err
func NewInternal(code, message string, err error) *AppError {
	return &AppError{
		Status:   http.StatusInternalServerError,
		Code:     code,
		Message:  message,
		Internal: err,
	}
}
