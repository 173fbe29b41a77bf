// Package errors defines the service error type shared by services, middleware
// and HTTP handlers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeValidation   Code = "validation_failed"
	CodeNotFound     Code = "not_found"
	CodeForbidden    Code = "forbidden"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeInvalidToken Code = "invalid_token"
	CodeRateLimited  Code = "rate_limited"
	CodeUnsupported  Code = "unsupported"
	CodeInternal     Code = "internal"
)

// ServiceError carries an HTTP status alongside a code and human message.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Is matches on code so errors.Is(err, errors.NotFound("")) works across messages.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails attaches a detail key to the error and returns it.
func (e *ServiceError) WithDetails(key string, value any) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newError(code Code, status int, msg string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: msg, HTTPStatus: status, Err: err}
}

// Validation reports bad input.
func Validation(format string, args ...any) *ServiceError {
	return newError(CodeValidation, http.StatusBadRequest, fmt.Sprintf(format, args...), nil)
}

// Required is shorthand for a missing field.
func Required(field string) *ServiceError {
	return Validation("%s is required", field).WithDetails("field", field)
}

// NotFound reports a missing entity.
func NotFound(entity, id string) *ServiceError {
	msg := entity + " not found"
	if id != "" {
		msg = fmt.Sprintf("%s %q not found", entity, id)
	}
	return newError(CodeNotFound, http.StatusNotFound, msg, nil)
}

// Forbidden reports an authenticated caller lacking permission.
func Forbidden(format string, args ...any) *ServiceError {
	return newError(CodeForbidden, http.StatusForbidden, fmt.Sprintf(format, args...), nil)
}

// Conflict reports a state clash such as a duplicate.
func Conflict(format string, args ...any) *ServiceError {
	return newError(CodeConflict, http.StatusConflict, fmt.Sprintf(format, args...), nil)
}

// Unauthorized reports missing credentials.
func Unauthorized(msg string) *ServiceError {
	if msg == "" {
		msg = "authentication required"
	}
	return newError(CodeUnauthorized, http.StatusUnauthorized, msg, nil)
}

// InvalidToken reports a token that failed verification.
func InvalidToken(err error) *ServiceError {
	return newError(CodeInvalidToken, http.StatusUnauthorized, "invalid or expired token", err)
}

// RateLimitExceeded reports throttling.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return newError(CodeRateLimited, http.StatusTooManyRequests, "rate limit exceeded", nil).
		WithDetails("limit", limit).
		WithDetails("window", window)
}

// Unsupported reports a feature that is not configured.
func Unsupported(format string, args ...any) *ServiceError {
	return newError(CodeUnsupported, http.StatusNotImplemented, fmt.Sprintf(format, args...), nil)
}

// Internal wraps an unexpected failure.
func Internal(msg string, err error) *ServiceError {
	return newError(CodeInternal, http.StatusInternalServerError, msg, err)
}

// GetServiceError extracts a ServiceError from the chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	return nil
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == code
}

// Is and As re-export the standard helpers so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// New re-exports errors.New.
func New(msg string) error { return stderrors.New(msg) }
