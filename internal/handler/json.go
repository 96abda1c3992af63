package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"campusevents/internal/service"
)

// maxJSONBody caps request bodies for JSON endpoints.
const maxJSONBody = 1 << 20

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}

// writeJSONSuccess writes a JSON success response.
func writeJSONSuccess(w http.ResponseWriter, data map[string]any) {
	writeJSONSuccessStatus(w, http.StatusOK, data)
}

// writeJSONSuccessStatus writes a JSON success response with a status code.
func writeJSONSuccessStatus(w http.ResponseWriter, statusCode int, data map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		data = make(map[string]any)
	}
	data["success"] = true
	_ = json.NewEncoder(w).Encode(data)
}

// writeValidationError writes a 400 carrying per-field messages.
func writeValidationError(w http.ResponseWriter, ve *service.ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "validation failed",
		"fields":  ve.Fields,
	})
}

// decodeJSON decodes a JSON request body into dst.
// Writes a 400 and returns false on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps service errors to HTTP responses. Unknown errors
// are logged with the request context and surface as a generic 500; store
// internals never leak.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string, args ...any) {
	if ve, ok := service.AsValidationError(err); ok {
		writeValidationError(w, ve)
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSONError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrPendingApproval):
		writeJSONError(w, http.StatusForbidden, "account pending approval")
	case errors.Is(err, service.ErrEmailTaken):
		writeJSONError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, service.ErrSelfModification):
		writeJSONError(w, http.StatusConflict, "cannot perform this action on your own account")
	default:
		args = append(args, "error", err)
		slog.ErrorContext(r.Context(), logMsg, args...)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}
