// Package service holds the business rules for accounts and the event
// moderation workflow. Handlers translate service errors to HTTP statuses;
// nothing in here knows about requests or sessions.
package service

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by services. Handlers map these to status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPendingApproval    = errors.New("account pending approval")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSelfModification   = errors.New("cannot perform this action on your own account")
)

// ValidationError reports one or more invalid input fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// newValidationError builds a ValidationError, returning nil when fields is empty.
func newValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// AsValidationError unwraps err as a ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
