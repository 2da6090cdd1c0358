package reservationsRepo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"staygate/models"
)

// ReservationRepository is the durable ledger of booking attempts. Every
// orchestrator transition is recorded here before the next remote call, so a
// crash between a supplier call and the local update is recoverable by
// re-reading supplier status on restart.
type ReservationRepository interface {
	Create(ctx context.Context, record models.ReservationRecord) (string, error)
	GetByCorrelationID(ctx context.Context, correlationID string) (*models.ReservationRecord, error)
	// RecordTransition appends the transition, stores the updated attempt and
	// reprojects the customer-facing status in one write.
	RecordTransition(ctx context.Context, correlationID string, transition models.StateTransition, attempt models.BookingAttempt, status string) error
	// MarkMarginAttributed flips the attribution guard; it reports false when
	// the guard was already set, so rule stats are counted exactly once per
	// correlation ID.
	MarkMarginAttributed(ctx context.Context, correlationID string) (bool, error)
	ListByStatus(ctx context.Context, status string) ([]models.ReservationRecord, error)
	// ListUnresolved returns records whose attempt is not in a terminal
	// state, used for status rechecks after a restart.
	ListUnresolved(ctx context.Context) ([]models.ReservationRecord, error)
}

type mongoReservationRepo struct {
	coll *mongo.Collection
}

// NewMongoReservationRepo returns a ReservationRepository backed by MongoDB.
func NewMongoReservationRepo(db *mongo.Database) ReservationRepository {
	return &mongoReservationRepo{
		coll: db.Collection("reservations"),
	}
}
