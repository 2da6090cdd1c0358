package booking

import (
	"errors"
	"fmt"

	"staygate/models"
)

// ErrQuoteExpired is returned when a confirmation references a quote that is
// no longer in the cache.
var ErrQuoteExpired = errors.New("quote not found or expired")

// ValidationError reports malformed caller input. It is raised locally and
// never sent to the supplier.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// InvariantViolationError reports an operation attempted from a state that
// does not allow it. This is a programming or integration error; it fails
// fast and leaves state unchanged.
type InvariantViolationError struct {
	Op    string
	State models.AttemptState
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation: %s not allowed from state %s", e.Op, e.State)
}

// IsValidation reports whether err is a local input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInvariantViolation reports whether err is a state-machine violation.
func IsInvariantViolation(err error) bool {
	var ie *InvariantViolationError
	return errors.As(err, &ie)
}
