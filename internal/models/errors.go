package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the server services and the map client.
// Callers branch on these sentinels with errors.Is and never on the
// wrapped storage detail.
var (
	// ErrUnauthorized means no identity could be resolved for the request.
	// Absence of an identity is an expected outcome, not a server fault.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput means a required creation or update field is missing
	// or malformed. Raised before any query runs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorage means the backing store failed. The raw cause is logged
	// server-side only and never returned to clients.
	ErrStorage = errors.New("storage error")

	// ErrNotFound means the addressed record does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError describes which field failed boundary validation.
// It unwraps to ErrInvalidInput so callers can branch on the taxonomy.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
