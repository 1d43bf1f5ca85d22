package apperrors

import (
	"errors"
	"fmt"
)

// Type classifies an AppError for translation at the HTTP boundary.
type Type string

const (
	TypeValidation       Type = "VALIDATION"
	TypeNotFound         Type = "NOT_FOUND"
	TypePermissionDenied Type = "PERMISSION_DENIED"
	TypeNotAuthenticated Type = "NOT_AUTHENTICATED"
	TypeIntegrity        Type = "INTEGRITY"
	TypeInternal         Type = "INTERNAL"
)

// AppError is the error kind returned by services and repositories.
// Message is safe to show to API clients; Err is kept for logs.
type AppError struct {
	Type    Type
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Type: TypeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...interface{}) *AppError {
	return &AppError{Type: TypeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewPermissionDeniedError(message string) *AppError {
	return &AppError{Type: TypePermissionDenied, Message: message}
}

func NewNotAuthenticatedError(message string) *AppError {
	return &AppError{Type: TypeNotAuthenticated, Message: message}
}

// NewIntegrityError wraps a storage constraint violation that lost a race
// against an application pre-check.
func NewIntegrityError(message string, err error) *AppError {
	return &AppError{Type: TypeIntegrity, Message: message, Err: err}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Type: TypeInternal, Message: message, Err: err}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an AppError of the given type.
func Is(err error, t Type) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}
