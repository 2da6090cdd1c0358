package models

import "time"

// AttemptState is the explicit lifecycle state of a booking attempt. Every
// remote interaction with the supplier happens inside exactly one state, and
// the orchestrator records each transition in the ledger before moving on.
type AttemptState string

const (
	StateQuoted               AttemptState = "QUOTED"
	StateLocking              AttemptState = "LOCKING"
	StateLocked               AttemptState = "LOCKED"
	StateCreating             AttemptState = "CREATING"
	StateAwaitingGuestConfirm AttemptState = "AWAITING_GUEST_CONFIRM"
	StateSubmitting           AttemptState = "SUBMITTING"
	StatePolling              AttemptState = "POLLING"
	StateConfirmed            AttemptState = "CONFIRMED"
	StateFailed               AttemptState = "FAILED"
	StateCancelRequested      AttemptState = "CANCEL_REQUESTED"
	StateCancelled            AttemptState = "CANCELLED"
)

// Terminal reports whether no further transitions are possible, except for
// the single Confirmed → CancelRequested path.
func (s AttemptState) Terminal() bool {
	switch s {
	case StateConfirmed, StateFailed, StateCancelled:
		return true
	}
	return false
}

// allowedTransitions encodes the booking state machine. Failed is reachable
// from any non-terminal state and is therefore not listed per source state.
var allowedTransitions = map[AttemptState][]AttemptState{
	StateQuoted:               {StateLocking, StateLocked},
	StateLocking:              {StateLocked},
	StateLocked:               {StateCreating},
	StateCreating:             {StateAwaitingGuestConfirm},
	StateAwaitingGuestConfirm: {StateSubmitting},
	StateSubmitting:           {StatePolling},
	StatePolling:              {StateConfirmed},
	StateConfirmed:            {StateCancelRequested},
	StateCancelRequested:      {StateCancelled},
}

// CanTransition reports whether from → to is a legal state-machine edge.
func CanTransition(from, to AttemptState) bool {
	if to == StateFailed {
		return !from.Terminal()
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Failure reasons recorded on a terminal Failed attempt.
const (
	FailureSandboxRestriction = "sandbox_restriction"
	FailurePriceChanged       = "price_changed"
	FailureTimeout            = "timeout"
	FailureSupplierError      = "supplier_error"
	FailureTransport          = "transport_error"
	FailureInvalidPayment     = "invalid_payment"
	FailureAborted            = "aborted"
)

// BookingAttempt is the unit of orchestration. The correlation ID is caller
// generated, globally unique and stable across retries; it is threaded
// through every remote call as the supplier-side idempotency key. Attempts
// are never deleted, only transitioned — they are the audit trail.
type BookingAttempt struct {
	CorrelationID string       `bson:"correlation_id" json:"correlationId"`
	MatchHash     string       `bson:"match_hash" json:"matchHash"`
	BookHash      string       `bson:"book_hash,omitempty" json:"bookHash,omitempty"`
	OrderID       string       `bson:"order_id,omitempty" json:"orderId,omitempty"`
	State         AttemptState `bson:"state" json:"state"`

	GuestDetails     GuestDetails   `bson:"guest_details" json:"guestDetails"`
	PaymentSelection *PaymentOption `bson:"payment_selection,omitempty" json:"paymentSelection,omitempty"`
	Refundable       bool           `bson:"refundable" json:"refundable"`

	// Winning margin rule, recorded for traceability and so applied-count
	// attribution happens exactly once per confirmed attempt.
	AppliedRuleID string  `bson:"applied_rule_id,omitempty" json:"appliedRuleId,omitempty"`
	MarginAmount  float64 `bson:"margin_amount" json:"marginAmount"`
	BasePrice     float64 `bson:"base_price" json:"basePrice"`
	FinalPrice    float64 `bson:"final_price" json:"finalPrice"`
	Currency      string  `bson:"currency" json:"currency"`

	FailureReason string    `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`
	FailureCode   string    `bson:"failure_code,omitempty" json:"failureCode,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}
