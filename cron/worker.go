package cron

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"staygate/config"
	"staygate/models"
	"staygate/services/booking"
	"staygate/services/notification"
)

// StartWorker runs the asynq worker that dispatches terminal booking events
// and performs out-of-band status rechecks. Event dispatch stops at handing
// the payload to the delivery collaborators; delivery itself (email,
// WhatsApp, push) is outside this service.
func StartWorker(bookingSvc booking.BookingService, logger *zap.Logger) *asynq.Server {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeBookingEvent, handleBookingEvent(logger))
	mux.HandleFunc(notification.TypeStatusRecheck, handleStatusRecheck(bookingSvc, logger))

	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Fatal("asynq worker failed", zap.Error(err))
		}
	}()
	return srv
}

func handleBookingEvent(logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.BookingEventPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("invalid booking event payload: %w", err)
		}
		logger.Info("dispatching booking event",
			zap.String("event", p.Event),
			zap.String("reservationId", p.ReservationID),
			zap.String("customerEmail", p.CustomerEmail),
			zap.String("status", p.Status))
		// Hand-off point for the delivery collaborators.
		return nil
	}
}

func handleStatusRecheck(bookingSvc booking.BookingService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.StatusRecheckPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("invalid recheck payload: %w", err)
		}
		logger.Info("running out-of-band status recheck",
			zap.String("correlationId", p.CorrelationID))
		return bookingSvc.RecheckStatus(ctx, p.CorrelationID)
	}
}
