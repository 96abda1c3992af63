package middleware

import (
	"encoding/json"
	"net/http"
)

// APIError represents a JSON error response.
type APIError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Details = details

	_ = json.NewEncoder(w).Encode(apiErr)
}

// writeAuthError writes the standard error body for 401/403 responses.
func writeAuthError(w http.ResponseWriter, statusCode int, message string) {
	code := "unauthorized"
	if statusCode == http.StatusForbidden {
		code = "forbidden"
	}
	WriteAPIError(w, statusCode, code, message, nil)
}
