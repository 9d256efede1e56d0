package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrValidation = errors.New("validation failed")

	// ErrStorageUnavailable covers pool exhaustion and connection failures. Callers may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrIntegrityViolation is fatal to the request and must not be retried.
	ErrIntegrityViolation = errors.New("integrity violation")

	ErrDatabase = errors.New("database error")

	ErrUnauthorized = errors.New("unauthorized")
)

type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func NewValidationError(field, message string) error {
	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message})
}

// NewValidationErrorWithCause keeps cause reachable through errors.Is so callers
// can tell rejection reasons apart.
func NewValidationErrorWithCause(field, message string, cause error) error {
	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message, Cause: cause})
}

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func WrapDatabaseError(cause error, message string) error {
	return &AppError{
		Code:    "DB_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrDatabase, cause),
	}
}

func WrapStorageUnavailable(cause error, message string) error {
	return &AppError{
		Code:    "STORAGE_UNAVAILABLE",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrStorageUnavailable, cause),
	}
}

func WrapIntegrityViolation(cause error, message string) error {
	return &AppError{
		Code:    "INTEGRITY_VIOLATION",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrIntegrityViolation, cause),
	}
}
