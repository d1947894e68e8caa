package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a request whose required text was missing or blank
	ErrInvalidInput = errors.New("invalid input")
	// ErrAPIKeyMissing is returned when no model credentials are configured
	ErrAPIKeyMissing = errors.New("model api key not configured")
	// ErrEmptyResponse is returned when the model produced no usable candidate or text
	ErrEmptyResponse = errors.New("empty model response")
	// ErrSafetyBlocked is returned when the model stopped for safety reasons
	ErrSafetyBlocked = errors.New("model response blocked for safety")
	// ErrTruncatedResponse is returned when the model hit its output limit
	ErrTruncatedResponse = errors.New("model response truncated")
)

// InputError carries the user-facing reason a request was rejected
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// ResponseError wraps one of the response sentinels with a user-facing message
type ResponseError struct {
	Kind    error
	Message string
}

func (e *ResponseError) Error() string { return e.Message }

func (e *ResponseError) Unwrap() error { return e.Kind }

// InvalidStructureError is returned when the model answered with valid JSON
// that lacks one of the required arrays
type InvalidStructureError struct {
	Field string
}

func (e *InvalidStructureError) Error() string {
	return fmt.Sprintf("Invalid analysis structure: missing %s array", e.Field)
}
