package server

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error types in API error responses.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeTooLarge       = "request_too_large"
	ErrorTypeNotFound       = "not_found_error"
	ErrorTypeUnavailable    = "service_unavailable"
	ErrorTypeServer         = "server_error"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// errUnavailable is reported when an optional component is not configured.
var errUnavailable = errors.New("component not enabled")

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, errType, message string) {
	writeJSON(w, code, ErrorResponse{Error: ErrorDetail{Message: message, Type: errType}})
}
