package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeValidation indicates invalid caller input
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from an external service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeSourceUnavailable indicates a data source could not be reached
	// (network error, timeout at the transport level, non-2xx response)
	ErrorTypeSourceUnavailable ErrorType = "SOURCE_UNAVAILABLE"

	// ErrorTypeMalformedResponse indicates a source answered with a payload
	// that violates its schema
	ErrorTypeMalformedResponse ErrorType = "MALFORMED_RESPONSE"

	// ErrorTypeMissingCredential indicates a metered provider was asked to
	// resolve without a configured credential; no network attempt was made
	ErrorTypeMissingCredential ErrorType = "MISSING_CREDENTIAL"

	// ErrorTypeTimeout indicates a single provider call exceeded its deadline
	ErrorTypeTimeout ErrorType = "TIMEOUT"

	// ErrorTypeResultCountMismatch indicates a provider returned a result
	// sequence whose length does not match the requested destinations
	ErrorTypeResultCountMismatch ErrorType = "RESULT_COUNT_MISMATCH"

	// ErrorTypeImplausibleDistance indicates a provider value failed the
	// road/straight-line plausibility band; never surfaced to callers
	ErrorTypeImplausibleDistance ErrorType = "IMPLAUSIBLE_DISTANCE"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeExternal, Message: message, Err: err}
}

// NewSourceUnavailableError creates a new source unavailable error
func NewSourceUnavailableError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeSourceUnavailable, Message: message, Err: err}
}

// NewMalformedResponseError creates a new malformed response error
func NewMalformedResponseError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeMalformedResponse, Message: message, Err: err}
}

// NewMissingCredentialError creates a new missing credential error
func NewMissingCredentialError(message string) *AppError {
	return &AppError{Type: ErrorTypeMissingCredential, Message: message}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeTimeout, Message: message, Err: err}
}

// NewResultCountMismatchError creates a new result count mismatch error
func NewResultCountMismatchError(message string) *AppError {
	return &AppError{Type: ErrorTypeResultCountMismatch, Message: message}
}

// NewImplausibleDistanceError creates a new implausible distance error
func NewImplausibleDistanceError(message string) *AppError {
	return &AppError{Type: ErrorTypeImplausibleDistance, Message: message}
}
