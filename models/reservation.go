package models

import "time"

// Customer-facing reservation statuses, a coarser projection of the
// orchestrator's internal attempt state.
const (
	ReservationPending   = "pending"
	ReservationApproved  = "approved"
	ReservationDenied    = "denied"
	ReservationInvoiced  = "invoiced"
	ReservationPaid      = "paid"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
	ReservationCompleted = "completed"
)

// StateTransition is one recorded edge of an attempt's lifecycle.
type StateTransition struct {
	From AttemptState `bson:"from" json:"from"`
	To   AttemptState `bson:"to" json:"to"`
	At   time.Time    `bson:"at" json:"at"`
	Note string       `bson:"note,omitempty" json:"note,omitempty"`
}

// PriceBreakdown is the customer-facing decomposition of the final price.
type PriceBreakdown struct {
	BasePrice    float64 `bson:"base_price" json:"basePrice"`
	MarginAmount float64 `bson:"margin_amount" json:"marginAmount"`
	FinalPrice   float64 `bson:"final_price" json:"finalPrice"`
	Currency     string  `bson:"currency" json:"currency"`
	RuleName     string  `bson:"rule_name,omitempty" json:"ruleName,omitempty"`
}

// ReservationRecord is the durable projection of a booking attempt plus trip
// metadata. It is created together with the attempt, updated at every state
// transition and never hard-deleted; cancellation is a status, not a row
// removal.
type ReservationRecord struct {
	ID            string `bson:"id" json:"id"`
	CorrelationID string `bson:"correlation_id" json:"correlationId"`
	// QuoteID ties the record back to the quote it was confirmed from; a
	// replayed confirm with the same correlation ID must reference it.
	QuoteID string `bson:"quote_id" json:"quoteId"`

	HotelID    string    `bson:"hotel_id" json:"hotelId"`
	HotelBrand string    `bson:"hotel_brand,omitempty" json:"hotelBrand,omitempty"`
	City       string    `bson:"city" json:"city"`
	Country    string    `bson:"country" json:"country"`
	StarRating int       `bson:"star_rating" json:"starRating"`
	CheckIn    time.Time `bson:"check_in" json:"checkIn"`
	CheckOut   time.Time `bson:"check_out" json:"checkOut"`
	GuestCount int       `bson:"guest_count" json:"guestCount"`
	RoomName   string    `bson:"room_name" json:"roomName"`
	MealType   string    `bson:"meal_type" json:"mealType"`

	Status         string            `bson:"status" json:"status"`
	Attempt        BookingAttempt    `bson:"attempt" json:"attempt"`
	Transitions    []StateTransition `bson:"transitions" json:"transitions"`
	PriceBreakdown PriceBreakdown    `bson:"price_breakdown" json:"priceBreakdown"`

	// Set once the winning rule's applied stats have been incremented, so a
	// retried confirmation for the same correlation ID cannot double-count.
	MarginAttributed bool `bson:"margin_attributed" json:"marginAttributed"`

	CustomerEmail string    `bson:"customer_email" json:"customerEmail"`
	CustomerPhone string    `bson:"customer_phone,omitempty" json:"customerPhone,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}
