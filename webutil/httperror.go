package webutil

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	msgBadRequest     = "Bad Request"
	msgNotFound       = "Resource not found"
	msgInternalServer = "Internal Server Error"
	msgUnauthorized   = "Unauthorized"
)

// Represents an error with an associated HTTP status code
// and a user-facing message.
type HTTPError struct {
	cause   error  // The underlying error, can be nil
	Code    int    // HTTP status code
	Message string // User-facing error message
}

// Implements the error interface.
// It returns the Message, which is intended for the HTTP response.
func (he HTTPError) Error() string {
	return he.Message
}

// Provides compatibility for errors.Is and errors.As.
func (he HTTPError) Unwrap() error {
	return he.cause
}

// Returns the defaultVal if the initial message is empty.
func defaultMessageIfEmpty(initialMsg, defaultVal string) string {
	if initialMsg == "" {
		return defaultVal
	}
	return initialMsg
}

func newHTTPError(code int, message string, cause error) *HTTPError {
	if cause == nil {
		cause = errors.New(message)
	}
	return &HTTPError{cause: cause, Code: code, Message: message}
}

func ErrBadRequestWrap(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusBadRequest, defaultMessageIfEmpty(message, msgBadRequest), cause)
}

func ErrNotFound(message string) *HTTPError {
	return newHTTPError(http.StatusNotFound, defaultMessageIfEmpty(message, msgNotFound), nil)
}

func ErrNotFoundWrap(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusNotFound, defaultMessageIfEmpty(message, msgNotFound), cause)
}

// ErrInternalServerWrap keeps message in the logged cause only; clients
// always see the generic text.
func ErrInternalServerWrap(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusInternalServerError, msgInternalServer, fmt.Errorf("%s: %w", message, cause))
}

func ErrUnauthorized(message string) *HTTPError {
	return newHTTPError(http.StatusUnauthorized, defaultMessageIfEmpty(message, msgUnauthorized), nil)
}
