package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"herald/internal/types"
)

const contentTypeJSON = "application/json; charset=utf-8"

// HTTPError carries a status code and a client facing message.
type HTTPError struct {
	cause   error
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.cause
}

func badRequest(message string, cause error) *HTTPError {
	return &HTTPError{cause: cause, Code: http.StatusBadRequest, Message: message}
}

// appHandler is a handler that reports failure by returning an error.
type appHandler func(w http.ResponseWriter, r *http.Request) error

func (h appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h(w, r)
	if err == nil {
		return
	}

	var httpErr *HTTPError
	status := http.StatusInternalServerError
	message := "Internal Server Error"

	switch {
	case errors.As(err, &httpErr):
		status = httpErr.Code
		message = httpErr.Message
		slog.Warn("Client error response", "code", status, "msg", message, "path", r.URL.Path, "method", r.Method)
	case types.IsValidation(err):
		status = http.StatusBadRequest
		message = err.Error()
	case types.IsNotFound(err):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		message = "request timed out"
		slog.Warn("Request deadline exceeded", "path", r.URL.Path, "method", r.Method, "error", err)
	default:
		slog.Error("Unhandled internal error", "path", r.URL.Path, "method", r.Method, "error", err)
	}

	respondJSON(w, status, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal Server Error"}`))
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// respondResult writes a mutation outcome. The status code follows the
// kind of failure carried by the result.
func respondResult(w http.ResponseWriter, successStatus int, res types.Result) {
	status := successStatus
	if !res.Success {
		switch {
		case types.IsValidation(res.Err):
			status = http.StatusBadRequest
		case types.IsNotFound(res.Err):
			status = http.StatusNotFound
		default:
			status = http.StatusInternalServerError
		}
	}

	respondJSON(w, status, res)
}
