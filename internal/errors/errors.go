package errors

import "fmt"

// ErrorCode represents a Z-Beam error code.
type ErrorCode string

const (
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	ErrAPIFailure       ErrorCode = "API_FAILURE"
	ErrDetectionFailed  ErrorCode = "DETECTION_FAILED"
	ErrConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrInternal         ErrorCode = "INTERNAL"
)

// Error represents a structured error with code and details.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewNotFound creates an error for a material missing from the data store.
func NewNotFound(identifier string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("material not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewInvalidRequest creates an error for invalid operation parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewExtractionFailed creates an error for generated text that does not match
// the structural markers expected for its component type.
func NewExtractionFailed(componentType, reason string) *Error {
	return &Error{
		Code:    ErrExtractionFailed,
		Message: fmt.Sprintf("cannot extract %s content: %s", componentType, reason),
		Details: map[string]any{"component_type": componentType, "reason": reason},
	}
}

// NewAPIFailure creates an error for a transport or provider failure while
// calling the generation API.
func NewAPIFailure(provider string, err error) *Error {
	msg := "provider error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrAPIFailure,
		Message: fmt.Sprintf("%s: %s", provider, msg),
		Details: map[string]any{"provider": provider},
	}
}

// NewDetectionFailed creates an error for a failed AI-detector call.
func NewDetectionFailed(err error) *Error {
	msg := "detector error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrDetectionFailed,
		Message: msg,
	}
}

// NewConfigInvalid creates an error for a missing or malformed configuration
// key. Configuration problems abort at construction time, never defaulted
// silently.
func NewConfigInvalid(key, reason string) *Error {
	return &Error{
		Code:    ErrConfigInvalid,
		Message: fmt.Sprintf("config %s: %s", key, reason),
		Details: map[string]any{"key": key},
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Message: msg,
	}
}

// Is checks if an error is a Z-Beam Error with the given code.
func Is(err error, code ErrorCode) bool {
	if zErr, ok := err.(*Error); ok {
		return zErr.Code == code
	}
	return false
}
