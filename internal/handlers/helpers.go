package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/social-momentum/internal/logger"
)

const maxErrorMessageLength = 200

// envelope is the body of every handler response. Data is set on success,
// Error and Message on failure.
type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Success: true, Data: data})
}

// respondError uses the status text as the error type. message is sanitized
// because it may carry upstream error text.
func respondError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, envelope{
		Error:   http.StatusText(status),
		Message: sanitizeErrorMessage(message),
	})
}

func sanitizeErrorMessage(message string) string {
	return logger.SanitizeString(message, maxErrorMessageLength)
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	body.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
