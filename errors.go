package feeledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/feeledger/reconcile"
	"github.com/xraph/feeledger/types"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("feeledger: not found")
	ErrAlreadyExists = errors.New("feeledger: already exists")
	ErrInvalidInput  = errors.New("feeledger: invalid input")

	// Record errors
	ErrStudentNotFound      = errors.New("feeledger: student not found")
	ErrFeeStructureNotFound = errors.New("feeledger: fee structure not found")
	ErrPaymentNotFound      = errors.New("feeledger: payment not found")

	// Store errors
	ErrStoreUnavailable = errors.New("feeledger: store unavailable")
	ErrStoreClosed      = errors.New("feeledger: store is closed")
	ErrMigrationFailed  = errors.New("feeledger: migration failed")

	// ErrMalformedRecord marks a stored record that cannot be mapped onto a
	// domain type. It is a data problem, not a store failure.
	ErrMalformedRecord = errors.New("feeledger: malformed record")

	// ErrAnomalyDetected matches every Anomaly. Anomalies are attached to
	// results and never returned as the error of a call.
	ErrAnomalyDetected = reconcile.ErrAnomalyDetected
)

// Issue is a single field-level validation failure.
type Issue = types.Issue

// ValidationError lists every problem found with an input. It matches
// ErrInvalidInput via errors.Is.
type ValidationError struct {
	Issues []Issue
}

// NewValidationError returns nil when there are no issues.
func NewValidationError(issues []Issue) error {
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

func (e *ValidationError) Error() string {
	switch len(e.Issues) {
	case 0:
		return "feeledger: validation failed"
	case 1:
		return "feeledger: validation failed: " + e.Issues[0].String()
	}
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return fmt.Sprintf("feeledger: validation failed: %d issues: %s", len(e.Issues), strings.Join(parts, "; "))
}

// Unwrap lets errors.Is(err, ErrInvalidInput) succeed.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "feeledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("feeledger: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrOrNil returns e as an error, or nil when nothing was collected.
func (e MultiError) ErrOrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrFeeStructureNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}

// IsValidation returns true if the error is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsStoreUnavailable returns true if a store collaborator failed. Callers may
// retry these; the engine never does.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrStoreClosed)
}
