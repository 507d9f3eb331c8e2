package storyblok

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
)

// ErrorKind tells apart the causes collapsed into APIError.
type ErrorKind string

const (
	// ErrorKindConnection covers DNS failures, refused connections, and
	// connections dropped before a response was read.
	ErrorKindConnection ErrorKind = "connection"

	// ErrorKindTimeout covers per-attempt timeouts and context deadlines.
	ErrorKindTimeout ErrorKind = "timeout"

	// ErrorKindHTTPStatus is a response with status >= 400, after retries.
	ErrorKindHTTPStatus ErrorKind = "http_status"

	// ErrorKindSerialization is a payload that could not be encoded as JSON.
	ErrorKindSerialization ErrorKind = "serialization"

	// ErrorKindRequest covers everything else that failed before or while
	// sending, including cancellation.
	ErrorKindRequest ErrorKind = "request"
)

// Static errors for err113 compliance.
var (
	ErrBodyNotStructured = errors.New("response body is not structured")
)

// APIError is the single error type returned by client calls.
type APIError struct {
	// Message describes the failure, without the common prefix.
	Message string `json:"message" yaml:"message"`
	// Code is the HTTP status when a response was received, 0 otherwise.
	Code int `json:"code" yaml:"code"`
	// Kind is the failure cause.
	Kind ErrorKind `json:"kind" yaml:"kind"`
	// Body is the response payload for ErrorKindHTTPStatus errors.
	Body []byte `json:"-" yaml:"-"`
	// Err is the underlying error, if any.
	Err error `json:"-" yaml:"-"`
}

// NewAPIError creates an APIError. When message is empty the cause's message
// is used.
func NewAPIError(kind ErrorKind, code int, message string, cause error) *APIError {
	if message == "" && cause != nil {
		message = cause.Error()
	}

	return &APIError{
		Message: message,
		Code:    code,
		Kind:    kind,
		Err:     cause,
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return constants.GenericHTTPError + " - " + e.Message
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Err
}

// WrapAPIError prefixes op to the message of an APIError, keeping its code,
// kind, and body. Any other error becomes an ErrorKindRequest APIError.
func WrapAPIError(op string, err error) error {
	if err == nil {
		return nil
	}

	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return &APIError{
			Message: fmt.Sprintf("%s: %s", op, apiErr.Message),
			Code:    apiErr.Code,
			Kind:    apiErr.Kind,
			Body:    apiErr.Body,
			Err:     apiErr,
		}
	}

	return NewAPIError(ErrorKindRequest, 0, fmt.Sprintf("%s: %s", op, err.Error()), err)
}

func statusCode(err error) int {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}

	return 0
}

func kindOf(err error) ErrorKind {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	return ""
}

// IsNotFound checks if the error is a 404 response.
func IsNotFound(err error) bool {
	return statusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is a 401 response.
func IsUnauthorized(err error) bool {
	return statusCode(err) == http.StatusUnauthorized
}

// IsRateLimited checks if the error is a 429 response.
func IsRateLimited(err error) bool {
	return statusCode(err) == http.StatusTooManyRequests
}

// IsTimeout checks if the request timed out.
func IsTimeout(err error) bool {
	return kindOf(err) == ErrorKindTimeout
}

// IsConnectionError checks if the request failed to reach the API.
func IsConnectionError(err error) bool {
	return kindOf(err) == ErrorKindConnection
}
