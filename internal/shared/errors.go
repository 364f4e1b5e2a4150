// Package shared holds cross-cutting helpers used by every domain package.
package shared

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors reused across repositories.
var (
	// ErrNotFound indicates a referenced record is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports malformed or out-of-range input. It is surfaced to
// the caller verbatim and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConfigurationError reports missing or inconsistent company configuration.
type ConfigurationError struct {
	Subject string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Subject, e.Reason)
}

// NumberingConflictError reports a race on sequential quotation numbering.
// Creation retries once with a fresh number before this error surfaces.
type NumberingConflictError struct {
	Number string
}

func (e *NumberingConflictError) Error() string {
	return fmt.Sprintf("numbering conflict on %s", e.Number)
}

// PartialAcceptanceError reports which acceptance step failed and the IDs of
// rows created before the transaction rolled back, so an operator can verify
// nothing leaked.
type PartialAcceptanceError struct {
	Step       string
	CreatedIDs map[string]int64
	Err        error
}

func (e *PartialAcceptanceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "acceptance failed at step %q", e.Step)
	for entity, id := range e.CreatedIDs {
		fmt.Fprintf(&b, ", created %s=%d", entity, id)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *PartialAcceptanceError) Unwrap() error {
	return e.Err
}
