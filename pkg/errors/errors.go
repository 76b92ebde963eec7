package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies application errors
type ErrorCode int

const (
	ErrValidation ErrorCode = iota + 1000
	ErrNotFound
	ErrUnauthorized
	ErrForbidden
	ErrGuard
	ErrInternal
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code to its response status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrValidation, ErrGuard:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors

func Validation(message string) *AppError {
	return &AppError{Code: ErrValidation, Message: message}
}

func Validationf(format string, args ...interface{}) *AppError {
	return &AppError{Code: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(resource string) *AppError {
	return &AppError{Code: ErrNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Unauthorized(message string) *AppError {
	return &AppError{Code: ErrUnauthorized, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: ErrForbidden, Message: message}
}

// Guard signals a booking lifecycle rule rejection. The message is shown to
// the caller verbatim, so it must explain the rule in plain words.
func Guard(message string) *AppError {
	return &AppError{Code: ErrGuard, Message: message}
}

func Guardf(format string, args ...interface{}) *AppError {
	return &AppError{Code: ErrGuard, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error) *AppError {
	return &AppError{Code: ErrInternal, Message: "internal server error", Err: err}
}

// AsAppError unwraps err into an *AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsGuard reports whether err is a lifecycle guard rejection.
func IsGuard(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == ErrGuard
}
