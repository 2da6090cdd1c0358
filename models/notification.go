package models

// Terminal booking events emitted to the notification collaborator.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingFailed    = "booking.failed"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEventPayload is the single event emitted per terminal state.
// Delivery (email/WhatsApp/push) is the collaborator's concern; its failure
// never rolls back a booking.
type BookingEventPayload struct {
	Event          string         `json:"event"`
	ReservationID  string         `json:"reservationId"`
	CorrelationID  string         `json:"correlationId"`
	CustomerEmail  string         `json:"customerEmail"`
	CustomerPhone  string         `json:"customerPhone,omitempty"`
	Status         string         `json:"status"`
	FailureReason  string         `json:"failureReason,omitempty"`
	PriceBreakdown PriceBreakdown `json:"priceBreakdown"`
}

// StatusRecheckPayload schedules an out-of-band supplier status re-read for
// an attempt whose poll budget was exhausted without a terminal answer.
type StatusRecheckPayload struct {
	CorrelationID string `json:"correlationId"`
}
