// Package apperror provides the domain error taxonomy for the task manager.
// Every error carries an HTTP status code and a message safe to show to the
// client; pkg/response maps them to HTTP responses in one place.
//
// Never return raw database or infrastructure errors to the client. Wrap them
// in an apperror type or return a generic internal error.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 404, 400, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "not_found").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewValidation creates a 400 error for malformed input.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "validation_error",
		Message: message,
	}
}

// NewDisallowedField creates a 403 error for request fields outside the
// update allow-list. 403 rather than 400 distinguishes "field not permitted"
// from "value malformed".
func NewDisallowedField() *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Type:    "validation_error",
		Message: "You have included parameters that are not allowed.",
	}
}

// NewAuthFailure creates a 401 error. The same message is used for every
// credential or token failure so callers cannot probe which emails exist.
func NewAuthFailure(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "auth_failure",
		Message: message,
	}
}

// NewNotFound creates a 404 error. Missing and not-owned resources are
// reported identically.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    "not_found",
		Message: message,
	}
}

// NewInternal creates a 500 error. The real error is stored in Internal for
// logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// From coerces any error into an *AppError, wrapping unknown errors as
// internal failures.
func From(err error) *AppError {
	var app *AppError
	if errors.As(err, &app) {
		return app
	}
	return NewInternal(err)
}
