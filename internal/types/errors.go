package types

import (
	"errors"
	"fmt"
)

// Error represents an API error
type Error struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"statusCode"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}

	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Code == t.Code
}

// DecodingError is returned when a response value cannot be decoded. It
// carries the offending raw value so callers can report it.
type DecodingError struct {
	Value string
	Err   error
}

// Error implements the error interface
func (e *DecodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding error: %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("decoding error: %q", e.Value)
}

// Unwrap returns the underlying parse error.
func (e *DecodingError) Unwrap() error {
	return e.Err
}

// Is matches ErrDecoding so errors.Is classification works.
func (e *DecodingError) Is(target error) bool {
	return target == ErrDecoding
}
