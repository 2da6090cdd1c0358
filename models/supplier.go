package models

import "time"

// Rate is one supplier-quoted room/meal/price combination for given dates.
// MatchHash identifies the rate; some supplier responses already carry a
// usable BookHash from the search step.
type Rate struct {
	MatchHash  string             `json:"matchHash"`
	BookHash   string             `json:"bookHash,omitempty"`
	RoomName   string             `json:"roomName"`
	MealType   string             `json:"mealType"`
	Price      float64            `json:"price"`
	Currency   string             `json:"currency"`
	Refundable bool               `json:"refundable"`
	Penalties  []CancellationRule `json:"penalties,omitempty"`
}

// CancellationRule is one step of a rate's cancellation-penalty schedule.
type CancellationRule struct {
	From    time.Time `json:"from"`
	Penalty float64   `json:"penalty"`
}

// SearchRequest is the input to the supplier's search operation.
type SearchRequest struct {
	HotelID  string    `json:"hotelId"`
	CheckIn  time.Time `json:"checkIn"`
	CheckOut time.Time `json:"checkOut"`
	Adults   int       `json:"adults"`
	Children []int     `json:"children,omitempty"` // ages
	Currency string    `json:"currency"`
}

// LockResult is returned by the supplier's lock (prebook) operation. The
// revalidated price is authoritative from this point on.
type LockResult struct {
	BookHash string  `json:"bookHash"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// PaymentOption is a payment type the supplier will accept for a booking,
// returned at booking-form creation. Only these options are valid for submit.
type PaymentOption struct {
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// BookingForm is the supplier's response to create-booking-form.
type BookingForm struct {
	OrderID        string          `json:"orderId"`
	PaymentOptions []PaymentOption `json:"paymentOptions"`
}

// Guest holds one traveller's details as submitted to the supplier.
type Guest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// GuestDetails is the full guest/contact block attached before submit.
type GuestDetails struct {
	Guests []Guest `json:"guests"`
	Email  string  `json:"email"`
	Phone  string  `json:"phone"`
}

// Booking status poll outcomes.
const (
	SupplierStatusOK         = "ok"
	SupplierStatusError      = "error"
	SupplierStatusProcessing = "processing"
)

// StatusResult is one read of the supplier's asynchronous booking status.
type StatusResult struct {
	Status    string `json:"status"` // ok | error | processing
	OrderID   string `json:"orderId,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
}
