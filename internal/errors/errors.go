package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeFormat             ErrorType = "FORMAT"
	ErrTypeMissingColumn      ErrorType = "MISSING_COLUMN"
	ErrTypeInsufficientInputs ErrorType = "INSUFFICIENT_INPUTS"
	ErrTypeConfig             ErrorType = "CONFIG"
	ErrTypeStorage            ErrorType = "STORAGE"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewFormatError reports that no encoding or engine candidate could parse a
// file. The cause carries the last underlying parse failure.
func NewFormatError(message string, cause error) *AppError {
	return NewAppError(ErrTypeFormat, message, cause)
}

// NewMissingColumnError reports that a required column could not be located.
func NewMissingColumnError(message string) *AppError {
	return NewAppError(ErrTypeMissingColumn, message, nil)
}

// NewInsufficientInputsError reports that fewer input files were found than
// the configured minimum.
func NewInsufficientInputsError(got, want int) *AppError {
	return NewAppError(ErrTypeInsufficientInputs,
		fmt.Sprintf("need at least %d input files, found %d", want, got), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}

// IsFormat reports whether err is a format error
func IsFormat(err error) bool { return IsType(err, ErrTypeFormat) }

// IsMissingColumn reports whether err is a missing-column error
func IsMissingColumn(err error) bool { return IsType(err, ErrTypeMissingColumn) }

// IsInsufficientInputs reports whether err is an insufficient-inputs error
func IsInsufficientInputs(err error) bool { return IsType(err, ErrTypeInsufficientInputs) }
