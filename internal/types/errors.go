// Package types provides common error types for proper error propagation
package types

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized error codes across the application
type ErrorCode string

const (
	// General errors
	ErrorCodeUnknown    ErrorCode = "UNKNOWN_ERROR"
	ErrorCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrorCodeTimeout    ErrorCode = "TIMEOUT"

	// Stream errors
	ErrorCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrorCodeSpawnFailed     ErrorCode = "SPAWN_ERROR"
	ErrorCodeRuntimeFailed   ErrorCode = "RUNTIME_ERROR"

	// Extractor errors
	ErrorCodeExtractFailed  ErrorCode = "EXTRACT_FAILED"
	ErrorCodeExtractTimeout ErrorCode = "EXTRACT_TIMEOUT"
)

// AppError represents a structured error with metadata
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	HTTPStatus int       `json:"http_status"`
	Timestamp  time.Time `json:"timestamp"`

	// Chain of errors for debugging
	Cause       error  `json:"-"`
	CauseString string `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewAppErrorWithCause creates an error with an underlying cause
func NewAppErrorWithCause(code ErrorCode, message string, httpStatus int, cause error) *AppError {
	err := NewAppError(code, message, httpStatus)
	err.Cause = cause
	if cause != nil {
		err.CauseString = cause.Error()
	}
	return err
}

// Common error constructors

// NewValidationError creates a validation error
func NewValidationError(message string, details ...string) *AppError {
	err := NewAppError(ErrorCodeValidation, message, http.StatusBadRequest)
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// NewSessionNotFoundError creates a not found error for a stream session
func NewSessionNotFoundError(id string) *AppError {
	return NewAppError(ErrorCodeSessionNotFound, fmt.Sprintf("stream session %s not found", id), http.StatusNotFound)
}

// NewSpawnError creates an error for an external process that failed to start
func NewSpawnError(message string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorCodeSpawnFailed, message, http.StatusInternalServerError, cause)
}

// NewRuntimeError creates an error for an external process that exited abnormally
func NewRuntimeError(message string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorCodeRuntimeFailed, message, http.StatusInternalServerError, cause)
}

// NewExtractTimeoutError creates an error for a source extraction that exceeded its budget
func NewExtractTimeoutError(url string, cause error) *AppError {
	err := NewAppErrorWithCause(ErrorCodeExtractTimeout, "stream extraction timed out", http.StatusGatewayTimeout, cause)
	err.Details = url
	return err
}

// HTTPStatusFromErrorCode maps error codes to HTTP status codes
func HTTPStatusFromErrorCode(code ErrorCode) int {
	switch code {
	case ErrorCodeValidation:
		return http.StatusBadRequest
	case ErrorCodeSessionNotFound:
		return http.StatusNotFound
	case ErrorCodeTimeout, ErrorCodeExtractTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// CodeFromError extracts the ErrorCode from an error, if it is an AppError
func CodeFromError(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrorCodeUnknown
}
