package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"staygate/models"
)

// Task types handled by the background worker.
const (
	TypeBookingEvent  = "notification:booking_event"
	TypeStatusRecheck = "booking:status_recheck"
)

// AsynqPublisher enqueues terminal booking events and delayed status
// rechecks onto the task queue. It implements both booking.Notifier and
// booking.RecheckScheduler.
type AsynqPublisher struct {
	client *asynq.Client
}

// NewAsynqPublisher wraps an asynq client constructed at process start.
func NewAsynqPublisher(client *asynq.Client) *AsynqPublisher {
	return &AsynqPublisher{client: client}
}

// PublishBookingEvent enqueues one terminal-state event for fan-out by the
// notification collaborator.
func (p *AsynqPublisher) PublishBookingEvent(ctx context.Context, payload models.BookingEventPayload) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode booking event: %w", err)
	}
	task := asynq.NewTask(TypeBookingEvent, b)
	if _, err := p.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue booking event: %w", err)
	}
	return nil
}

// ScheduleStatusRecheck enqueues a delayed supplier status re-read for an
// attempt whose poll budget ran out.
func (p *AsynqPublisher) ScheduleStatusRecheck(ctx context.Context, correlationID string, delay time.Duration) error {
	b, err := json.Marshal(models.StatusRecheckPayload{CorrelationID: correlationID})
	if err != nil {
		return fmt.Errorf("failed to encode recheck payload: %w", err)
	}
	task := asynq.NewTask(TypeStatusRecheck, b)
	if _, err := p.client.EnqueueContext(ctx, task, asynq.ProcessIn(delay)); err != nil {
		return fmt.Errorf("failed to enqueue status recheck: %w", err)
	}
	return nil
}
