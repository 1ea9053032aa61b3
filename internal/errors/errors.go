package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable failure class returned to callers.
type ErrorCode string

const (
	// Caller input
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeBodyTooLarge ErrorCode = "BODY_TOO_LARGE"

	// Portal
	ErrCodeAuth          ErrorCode = "AUTH_ERROR"
	ErrCodePortalBlocked ErrorCode = "PORTAL_BLOCKED"

	// Local throttling
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var httpStatus = map[ErrorCode]int{
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeBodyTooLarge:      http.StatusRequestEntityTooLarge,
	ErrCodeAuth:              http.StatusBadGateway,
	ErrCodePortalBlocked:     http.StatusServiceUnavailable,
	ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
}

// HTTPStatus maps the code onto the status the HTTP adapter answers with.
func (c ErrorCode) HTTPStatus() int {
	if status, ok := httpStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Fatal reports whether a failure with this code makes every later lookup
// in the same run pointless.
func (c ErrorCode) Fatal() bool {
	return c == ErrCodePortalBlocked || c == ErrCodeAuth
}

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, cause: cause}
}

func InvalidDNI(length int) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("DNI must be exactly %d digits", length))
}

func InvalidBody(reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Invalid request body: %s", reason))
}

func BodyTooLarge(limit int64) *AppError {
	return New(ErrCodeBodyTooLarge, fmt.Sprintf("Request body exceeds %d bytes", limit))
}

// AuthFailed is a login the portal answered but refused.
func AuthFailed(reason string) *AppError {
	return New(ErrCodeAuth, fmt.Sprintf("Portal login failed: %s", reason))
}

// LoginFailed is a login that never produced a usable answer.
func LoginFailed(cause error) *AppError {
	return Wrap(ErrCodeAuth, "Portal login failed", cause)
}

func PortalBlocked() *AppError {
	return New(ErrCodePortalBlocked, "Portal access blocked; manual intervention required")
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded")
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns ErrCodeInternal for anything that is not an AppError.
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsFatal(err error) bool {
	return err != nil && GetCode(err).Fatal()
}
