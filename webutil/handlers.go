package webutil

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
)

// AppHandler represents a handler function that returns an error.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// fieldErrorer is implemented by validation errors that carry per-field detail.
type fieldErrorer interface {
	error
	FieldErrors() map[string][]string
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// MakeHandler adapts an AppHandler to the standard http.HandlerFunc signature.
// It executes the AppHandler and handles any returned error by logging appropriately
// and sending a standardized JSON error response.
func MakeHandler(handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w}
		err := handler(rec, r)
		if err == nil {
			// The handler is assumed to have written its own successful response.
			return
		}

		var (
			httpErr  *HTTPError
			fieldErr fieldErrorer
			body     ErrorResponse
			status   int
		)

		switch {
		case errors.As(err, &fieldErr):
			status = http.StatusBadRequest
			body = ErrorResponse{Error: "Validation failed", Fields: fieldErr.FieldErrors()}
			slog.Log(r.Context(), slog.LevelWarn, "Validation error response",
				"fields", fieldErr.FieldErrors(),
				"path", r.URL.Path,
				"method", r.Method,
			)

		case errors.As(err, &httpErr):
			// This is an HTTPError we explicitly created (e.g., ErrBadRequest, ErrNotFound)
			status = httpErr.Code
			body = ErrorResponse{Error: httpErr.Message}
			logLevel := slog.LevelWarn // Treat client errors as warnings server-side
			if status >= 500 {
				logLevel = slog.LevelError
			}
			attrs := []any{"code", httpErr.Code, "msg", httpErr.Message, "path", r.URL.Path, "method", r.Method}
			// Log the underlying cause if present and different from the public message
			if cause := errors.Unwrap(httpErr); cause != nil && cause.Error() != httpErr.Message {
				attrs = append(attrs, "cause", cause)
			}
			slog.Log(r.Context(), logLevel, "Client error response", attrs...)

		case errors.Is(err, sql.ErrNoRows):
			// Specific handling for not-found errors from the datastore layer
			status = http.StatusNotFound
			body = ErrorResponse{Error: msgNotFound}
			slog.Info("Resource not found", "path", r.URL.Path, "method", r.Method, "error", err)

		default:
			// Any other error is treated as an internal server error
			status = http.StatusInternalServerError
			body = ErrorResponse{Error: msgInternalServer}
			slog.Error("Unhandled internal error", "path", r.URL.Path, "method", r.Method, "error", err)
		}

		if rec.wroteHeader {
			slog.Warn("Handler returned error after writing response header",
				"path", r.URL.Path,
				"method", r.Method,
				"error", err,
			)
			// Cannot send another response, just log.
			return
		}

		RespondWithJSON(w, status, body)
	}
}

// responseRecorder remembers whether a status line has gone out.
type responseRecorder struct {
	http.ResponseWriter
	wroteHeader bool
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.wroteHeader = true
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	rr.wroteHeader = true
	return rr.ResponseWriter.Write(b)
}
