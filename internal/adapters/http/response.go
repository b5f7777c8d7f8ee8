package http

import (
	"encoding/json"
	"net/http"
	"time"
)

// successEnvelope is the wire shape for every 2xx response.
type successEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

// errorEnvelope is the wire shape for every error response. Internal
// detail never reaches this struct; sanitization happens in the domain
// error mapping before the envelope is built.
type errorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
	RequestID  string `json:"requestId,omitempty"`
	Message    string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	writeJSON(w, statusCode, successEnvelope{
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	})
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	writeJSON(w, statusCode, errorEnvelope{
		StatusCode: statusCode,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Path:       r.URL.Path,
		RequestID:  requestIDFromContext(r.Context()),
		Message:    message,
	})
}
