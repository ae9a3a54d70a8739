package common

import (
	"errors"
	"fmt"
)

// Error categories. Match with errors.Is.
var (
	// ErrConfiguration marks missing credentials, directories or input files.
	// Raised during setup and never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation marks malformed input such as a CSV without a url column.
	ErrValidation = errors.New("validation error")

	// ErrExternalAPI marks a failed call to an upstream service.
	ErrExternalAPI = errors.New("external API error")
)

// categorizedError pairs a category sentinel with a message and an optional cause
type categorizedError struct {
	category error
	msg      string
	cause    error
}

func (e *categorizedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *categorizedError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.category, e.cause}
	}
	return []error{e.category}
}

// NewConfigurationError creates an error in the configuration category
func NewConfigurationError(format string, args ...interface{}) error {
	return &categorizedError{category: ErrConfiguration, msg: fmt.Sprintf(format, args...)}
}

// NewValidationError creates an error in the validation category
func NewValidationError(format string, args ...interface{}) error {
	return &categorizedError{category: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// NewExternalAPIError creates an upstream failure, optionally wrapping the transport error
func NewExternalAPIError(cause error, format string, args ...interface{}) error {
	return &categorizedError{category: ErrExternalAPI, msg: fmt.Sprintf(format, args...), cause: cause}
}

// ErrorCategory returns a short label for the error's category, or "unexpected"
func ErrorCategory(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrExternalAPI):
		return "external_api"
	default:
		return "unexpected"
	}
}
