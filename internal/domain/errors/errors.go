package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrAlreadyExists       = errors.New("resource already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
	ErrPreconditionFailed  = errors.New("precondition failed")
	ErrCodeExpired         = errors.New("verification code expired")
	ErrTooManyAttempts     = errors.New("too many verification attempts")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)

// AppError represents application error with HTTP status
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, message, ErrConflict)
}

// PreconditionFailed signals a business rule blocking the requested action.
// It maps to 400 because callers can fix it (finish KYC, complete steps).
func PreconditionFailed(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrPreconditionFailed)
}

func CodeExpired(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrCodeExpired)
}

func TooManyAttempts(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrTooManyAttempts)
}

// InvalidCode carries the remaining attempt budget back to the caller.
func InvalidCode(attemptsRemaining int) *AppError {
	return NewAppError(
		http.StatusBadRequest,
		fmt.Sprintf("invalid verification code, %d attempts remaining", attemptsRemaining),
		ErrInvalidCode,
	)
}

func Upstream(message string, err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, message, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err))
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "internal server error", err)
}
