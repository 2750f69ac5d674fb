package http

import "fmt"

// ErrorType categorizes a model-endpoint failure.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeRateLimit
	ErrTypeServiceUnavailable
	ErrTypeInvalidRequest
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeContentFiltered
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeInvalidRequest:
		return "invalid request"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeModelNotFound:
		return "model not found"
	case ErrTypeContentFiltered:
		return "content filtered"
	default:
		return "unknown error"
	}
}

// Error is a typed failure from a model endpoint or from the deadline
// wrapper around one. Endpoint names the call it came from; Retryable
// drives the transport-level retry loop.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	Endpoint   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Endpoint, e.Type.String(), e.Message, e.StatusCode)
}

// Is matches on error type so callers can test categories with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable returns true if a fresh attempt could plausibly succeed.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewAuthenticationError creates a non-retryable credential failure.
func NewAuthenticationError(endpoint, message string) *Error {
	return &Error{Type: ErrTypeAuthentication, Message: message, StatusCode: 401, Retryable: false, Endpoint: endpoint}
}

// NewRateLimitError creates a retryable quota failure.
func NewRateLimitError(endpoint, message string) *Error {
	return &Error{Type: ErrTypeRateLimit, Message: message, StatusCode: 429, Retryable: true, Endpoint: endpoint}
}

// NewServiceUnavailableError creates a retryable upstream failure.
func NewServiceUnavailableError(endpoint, message string) *Error {
	return &Error{Type: ErrTypeServiceUnavailable, Message: message, StatusCode: 503, Retryable: true, Endpoint: endpoint}
}

// NewInvalidRequestError creates a non-retryable bad-request failure.
func NewInvalidRequestError(endpoint, message string) *Error {
	return &Error{Type: ErrTypeInvalidRequest, Message: message, StatusCode: 400, Retryable: false, Endpoint: endpoint}
}

// NewTimeoutError creates a deadline failure. Not retryable at the transport
// level; the engine's own attempt loop decides whether to regenerate.
func NewTimeoutError(endpoint, message string) *Error {
	return &Error{Type: ErrTypeTimeout, Message: message, StatusCode: 0, Retryable: false, Endpoint: endpoint}
}

// NewModelNotFoundError creates a non-retryable unknown-model failure.
func NewModelNotFoundError(endpoint, message string) *Error {
	return &Error{Type: ErrTypeModelNotFound, Message: message, StatusCode: 404, Retryable: false, Endpoint: endpoint}
}

// NewContentFilteredError creates a non-retryable safety-filter failure.
func NewContentFilteredError(endpoint, message string) *Error {
	return &Error{Type: ErrTypeContentFiltered, Message: message, StatusCode: 400, Retryable: false, Endpoint: endpoint}
}
