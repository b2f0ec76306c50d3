package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/tailor-app/internal/validation"
)

// Error taxonomy reported to callers. Handlers map these onto HTTP statuses;
// nothing here is retried by the core itself.
var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrInvalidCancellation = errors.New("invalid cancellation")
	ErrForbidden           = errors.New("forbidden")
)

// ValidationError carries per-field violations for malformed input.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", map[string]string(e.Violations))
}

func newValidationError(v validation.Violations) error {
	return &ValidationError{Violations: v}
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
