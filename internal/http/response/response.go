// Package response writes JSON error bodies for the handlers that sit
// outside the OpenAPI layer (rate limiting, the SSE stream). The body
// shape matches the API error schema so clients see one error format.
package response

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
)

// ErrorBody mirrors the error schema produced by the API layer.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error writes a JSON error response with the given status code.
func Error(w http.ResponseWriter, status int, code, message string, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.MarshalWrite(w, ErrorBody{Code: code, Message: message}); err != nil {
		if logger != nil {
			logger.Error("Failed to encode error response", "error", err)
		}
	}
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, "RATE_LIMITED", message, logger)
}

// ServiceUnavailable writes a 503 Service Unavailable response.
func ServiceUnavailable(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", message, logger)
}
