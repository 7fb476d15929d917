package models

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorPayload is the uniform body of every rejected request.
type ErrorPayload struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// APIError is an error that carries the HTTP status it should be reported with.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError returns an APIError with the given status and message.
func NewAPIError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

// Timestamp formats t the way error payloads report time.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// WriteError writes the uniform error payload with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorPayload{
		Error:     message,
		Timestamp: Timestamp(time.Now()),
	})
}

// WriteAPIError writes e using its own status.
func WriteAPIError(w http.ResponseWriter, e *APIError) {
	WriteError(w, e.Status, e.Message)
}
