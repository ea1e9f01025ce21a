package models

import "fmt"

// ValidationError reports a malformed request parameter. Raised before any
// store access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a symbol with no recorded data.
type NotFoundError struct {
	Symbol string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no data found for symbol %q", e.Symbol)
}

// RangeError reports an effective query window that became empty or inverted
// after clamping or grid alignment. Details carries the clamp/align bounds so
// the caller can see why.
type RangeError struct {
	Message string
	Details map[string]interface{}
}

func (e *RangeError) Error() string { return e.Message }

// NewRangeError creates a range error with diagnostic details.
func NewRangeError(message string, details map[string]interface{}) *RangeError {
	return &RangeError{Message: message, Details: details}
}
