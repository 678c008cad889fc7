// Package httphandler translates HTTP requests into application service
// calls and maps the results back to HTTP responses.
package httphandler

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the JSON body returned for every non-2xx response.
type errorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
