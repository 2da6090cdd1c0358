package supplier

import (
	"errors"
	"fmt"
)

// Supplier rejection codes carried on RejectedError.
const (
	CodeRestricted          = "sandbox_restriction"
	CodePriceChanged        = "price_changed"
	CodeInsufficientBalance = "insufficient_balance"
)

// RejectedError is a definitive supplier refusal. It is never retried and is
// surfaced to the caller immediately.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// TransientError wraps a timeout or connection failure. The outcome of the
// underlying call is unknown, so writes must be re-verified via Status before
// being retried.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("supplier %s failed transiently: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsRejected reports whether err is a definitive supplier refusal.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// IsTransient reports whether err is retryable with the same correlation ID.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// RejectionCode extracts the supplier code from a rejection, or "".
func RejectionCode(err error) string {
	var re *RejectedError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
