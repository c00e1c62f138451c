package engine

import "fmt"

// ErrorType categorizes failures at the engine boundary.
type ErrorType string

const (
	ErrorTypeUnavailable     ErrorType = "unavailable"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeNetwork         ErrorType = "network"
	ErrorTypeInvalidResponse ErrorType = "invalid_response"
	ErrorTypeCancelled       ErrorType = "cancelled"
	ErrorTypeRemote          ErrorType = "remote"
)

// EngineError is a structured error reported by the engine client.
type EngineError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether retrying the operation is likely to succeed.
func (e *EngineError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeUnavailable, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// UserMessage returns a message suitable for the operator notice line.
func (e *EngineError) UserMessage() string {
	switch e.Type {
	case ErrorTypeUnavailable:
		return "Engine unavailable. Check that the scraping engine is running."
	case ErrorTypeTimeout:
		return "Engine request timed out. The engine may be busy."
	case ErrorTypeNetwork:
		return "Network error talking to the engine. Check your connection and try again."
	case ErrorTypeInvalidResponse:
		return "Received an invalid response from the engine."
	case ErrorTypeCancelled:
		return "Operation cancelled."
	case ErrorTypeRemote:
		return fmt.Sprintf("Engine reported an error: %s", e.Message)
	default:
		return e.Message
	}
}

func newUnavailableError(cause error) *EngineError {
	return &EngineError{Type: ErrorTypeUnavailable, Message: "engine not reachable", Cause: cause}
}

func newTimeoutError(cause error) *EngineError {
	return &EngineError{Type: ErrorTypeTimeout, Message: "request timed out", Cause: cause}
}

func newInvalidResponseError(message string, cause error) *EngineError {
	return &EngineError{Type: ErrorTypeInvalidResponse, Message: message, Cause: cause}
}

func newCancelledError(cause error) *EngineError {
	return &EngineError{Type: ErrorTypeCancelled, Message: "operation cancelled", Cause: cause}
}

func newRemoteError(message string) *EngineError {
	return &EngineError{Type: ErrorTypeRemote, Message: message}
}
