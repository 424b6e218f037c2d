package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of ETL error.
type ErrorCode string

const (
	// ErrCodeConfiguration indicates an unknown job, a missing flag or an invalid setting.
	// It is fatal and aborts a run before any query executes.
	ErrCodeConfiguration ErrorCode = "configuration"
	// ErrCodeParameter indicates a missing or invalid bind parameter.
	ErrCodeParameter ErrorCode = "parameter"
	// ErrCodeDatabase indicates a connection or query failure.
	ErrCodeDatabase ErrorCode = "database"
	// ErrCodeNotFound indicates a record was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing state (unique violation, held run lock).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a deadline was exceeded.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field names the parameter, flag or column at fault (optional)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newf(code ErrorCode, format string, args ...any) *AppError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &AppError{Code: code, Message: msg}
}

// Configuration creates a ConfigurationError.
func Configuration(message string) *AppError {
	return newf(ErrCodeConfiguration, message)
}

// Configurationf creates a ConfigurationError with a formatted message.
func Configurationf(format string, args ...any) *AppError {
	return newf(ErrCodeConfiguration, format, args...)
}

// ConfigurationField creates a ConfigurationError naming the offending flag or setting.
func ConfigurationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeConfiguration, Message: message, Field: field}
}

// Parameter creates a ParameterError for the named bind parameter.
func Parameter(field, message string) *AppError {
	return &AppError{Code: ErrCodeParameter, Message: message, Field: field}
}

// Parameterf creates a ParameterError for the named bind parameter with a formatted message.
func Parameterf(field, format string, args ...any) *AppError {
	e := newf(ErrCodeParameter, format, args...)
	e.Field = field
	return e
}

// Database wraps a connection or query failure as a DatabaseError.
func Database(err error, message string) *AppError {
	return Wrap(err, ErrCodeDatabase, message)
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return newf(ErrCodeNotFound, format, args...)
}

// Conflictf creates a new Conflict error with formatted message.
func Conflictf(format string, args ...any) *AppError {
	return newf(ErrCodeConflict, format, args...)
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return newf(ErrCodeValidation, format, args...)
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return newf(ErrCodeInternal, format, args...)
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool { return isCode(err, ErrCodeConfiguration) }

// IsParameter reports whether err is a ParameterError.
func IsParameter(err error) bool { return isCode(err, ErrCodeParameter) }

// IsDatabase reports whether err is a DatabaseError.
func IsDatabase(err error) bool { return isCode(err, ErrCodeDatabase) }

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// GetCode returns the outermost ErrorCode in the chain, or empty string if there is none.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
