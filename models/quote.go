package models

import "time"

// PricedQuote holds context between quoting and confirmation. It lives in
// the quote cache under its QuoteID with a TTL; confirming after expiry
// requires a fresh quote.
type PricedQuote struct {
	QuoteID string `json:"quoteId"`

	HotelID    string    `json:"hotelId"`
	HotelBrand string    `json:"hotelBrand,omitempty"`
	City       string    `json:"city"`
	Country    string    `json:"country"`
	StarRating int       `json:"starRating"`
	CheckIn    time.Time `json:"checkIn"`
	CheckOut   time.Time `json:"checkOut"`
	GuestCount int       `json:"guestCount"`

	Rate         Rate   `json:"rate"`
	CustomerType string `json:"customerType"`

	BasePrice    float64 `json:"basePrice"`
	MarginAmount float64 `json:"marginAmount"`
	FinalPrice   float64 `json:"finalPrice"`
	Currency     string  `json:"currency"`
	RuleID       string  `json:"ruleId,omitempty"`
	RuleName     string  `json:"ruleName,omitempty"`
}

// QuoteRequest is the caller's input to the quote endpoint.
type QuoteRequest struct {
	HotelID      string    `json:"hotelId" binding:"required"`
	HotelBrand   string    `json:"hotelBrand"`
	City         string    `json:"city" binding:"required"`
	Country      string    `json:"country" binding:"required"`
	StarRating   int       `json:"starRating"`
	CheckIn      time.Time `json:"checkIn" binding:"required"`
	CheckOut     time.Time `json:"checkOut" binding:"required"`
	Adults       int       `json:"adults" binding:"required"`
	Children     []int     `json:"children"`
	Currency     string    `json:"currency"`
	CustomerType string    `json:"customerType"`
	MatchHash    string    `json:"matchHash"` // optional: pin a specific rate
}

// ConfirmRequest turns a priced quote into a booking attempt. CorrelationID
// is the caller's idempotency key: a retried confirm carrying the same ID
// converges on the first attempt instead of starting a second one. When
// omitted, one is generated and the retry guarantee is lost.
type ConfirmRequest struct {
	QuoteID       string         `json:"quoteId" binding:"required"`
	CorrelationID string         `json:"correlationId"`
	GuestDetails  GuestDetails   `json:"guestDetails" binding:"required"`
	Payment       *PaymentOption `json:"payment"`
}
