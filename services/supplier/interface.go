package supplier

import (
	"context"

	"staygate/models"
)

// Client is the subset of the supplier's booking protocol the orchestrator
// needs: search → lock → create form → submit → poll → cancel. Every call
// after search carries the caller's correlation ID, which the supplier uses
// as its idempotency key.
type Client interface {
	Search(ctx context.Context, req models.SearchRequest) ([]models.Rate, error)
	LockRate(ctx context.Context, matchHash string) (*models.LockResult, error)
	CreateBookingForm(ctx context.Context, correlationID, bookHash string) (*models.BookingForm, error)
	SubmitBooking(ctx context.Context, correlationID string, guests models.GuestDetails, payment models.PaymentOption) error
	Status(ctx context.Context, correlationID string) (*models.StatusResult, error)
	CancelBooking(ctx context.Context, correlationID, orderID string) error
}
