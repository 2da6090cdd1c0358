package reservationsRepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"staygate/models"
)

// ErrReservationNotFound is returned when no record matches the correlation ID.
var ErrReservationNotFound = errors.New("reservation not found")

// Create inserts a new reservation record and returns its ID.
func (r *mongoReservationRepo) Create(ctx context.Context, record models.ReservationRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		return "", err
	}
	return record.ID, nil
}

// GetByCorrelationID returns the record owning the given correlation ID.
func (r *mongoReservationRepo) GetByCorrelationID(ctx context.Context, correlationID string) (*models.ReservationRecord, error) {
	var record models.ReservationRecord
	err := r.coll.FindOne(ctx, bson.M{"correlation_id": correlationID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// RecordTransition persists one state-machine edge: the transition history
// entry, the updated attempt snapshot and the reprojected customer status.
func (r *mongoReservationRepo) RecordTransition(ctx context.Context, correlationID string, transition models.StateTransition, attempt models.BookingAttempt, status string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"correlation_id": correlationID},
		bson.M{
			"$push": bson.M{"transitions": transition},
			"$set": bson.M{
				"attempt":    attempt,
				"status":     status,
				"updated_at": time.Now(),
			},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// MarkMarginAttributed sets the attribution guard and reports whether this
// call was the one that set it.
func (r *mongoReservationRepo) MarkMarginAttributed(ctx context.Context, correlationID string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"correlation_id": correlationID, "margin_attributed": false},
		bson.M{"$set": bson.M{"margin_attributed": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ListByStatus returns reservations with the given customer-facing status.
func (r *mongoReservationRepo) ListByStatus(ctx context.Context, status string) ([]models.ReservationRecord, error) {
	return r.find(ctx, bson.M{"status": status})
}

// ListUnresolved returns reservations whose attempt has not reached a
// terminal state.
func (r *mongoReservationRepo) ListUnresolved(ctx context.Context) ([]models.ReservationRecord, error) {
	return r.find(ctx, bson.M{"attempt.state": bson.M{"$nin": bson.A{
		models.StateConfirmed,
		models.StateFailed,
		models.StateCancelled,
	}}})
}

func (r *mongoReservationRepo) find(ctx context.Context, filter bson.M) ([]models.ReservationRecord, error) {
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.ReservationRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
