package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"docuchat/backend/internal/apperr"
)

// Shared response DTOs and helpers for consistent HTTP and SSE output.

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the generic success envelope for operations that do not
// return a resource.
type StatusResponse struct {
	Status string `json:"status"`
}

// SessionResponse is returned when a new session is created.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// respondWithError maps application sentinel errors to HTTP status codes
// and writes the standard error envelope. Unrecognized errors become a 500
// with a generic message so internals never leak to the client.
func respondWithError(w http.ResponseWriter, err error) {
	var statusCode int
	var message string

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "The requested session was not found."
	case errors.Is(err, apperr.ErrValidation):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, apperr.ErrUnsupportedFormat):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, apperr.ErrDecoding):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, apperr.ErrConfiguration):
		statusCode = http.StatusUnauthorized
		message = "An API key is required. Provide it in the X-Api-Key header."
	default:
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal server error occurred."
	}

	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)
	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// writeStreamEvent marshals data and writes one SSE event. A write failure
// signals a disconnected client and is returned to stop the stream loop.
func writeStreamEvent(w http.ResponseWriter, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal stream data", "error", err)
		return nil
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		return fmt.Errorf("failed to write data to stream: %w", err)
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}
