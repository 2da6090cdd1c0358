package booking

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	reservationsRepo "staygate/database/repository/reservations"
	"staygate/models"
	"staygate/services/pricing"
	"staygate/services/supplier"
)

// Notifier publishes one event per terminal booking state. Publish failures
// are logged by the orchestrator and never promoted into booking failures.
type Notifier interface {
	PublishBookingEvent(ctx context.Context, payload models.BookingEventPayload) error
}

// RecheckScheduler schedules an out-of-band supplier status re-read, used
// when the poll budget runs out without a terminal answer.
type RecheckScheduler interface {
	ScheduleStatusRecheck(ctx context.Context, correlationID string, delay time.Duration) error
}

// BookingService quotes rates and drives booking attempts to a terminal
// state.
type BookingService interface {
	// Quote searches the supplier, applies the margin policy and caches the
	// priced quote under a fresh quote ID.
	Quote(ctx context.Context, req models.QuoteRequest) (*models.PricedQuote, error)
	// Confirm turns a priced quote into a booking attempt and returns its
	// correlation ID immediately; the attempt runs on its own worker and
	// progress is observed through the ledger. A caller-supplied correlation
	// ID makes the call idempotent: replays for the same quote return the
	// existing attempt.
	Confirm(ctx context.Context, req models.ConfirmRequest) (string, error)
	// Abort requests cancellation of an in-flight attempt. It is honored at
	// the next safe checkpoint before Submitting; afterwards the attempt
	// runs to a terminal state.
	Abort(ctx context.Context, correlationID string) error
	// Cancel cancels a Confirmed booking with the supplier. From any other
	// state it returns an InvariantViolationError and changes nothing.
	Cancel(ctx context.Context, correlationID string) error
	// GetReservation returns the current ledger record for an attempt.
	GetReservation(ctx context.Context, correlationID string) (*models.ReservationRecord, error)
	// RecheckStatus re-reads supplier status for an unresolved attempt and
	// settles it if the supplier has reached a terminal answer.
	RecheckStatus(ctx context.Context, correlationID string) error
	// RecoverUnresolved rechecks every non-terminal reservation, called once
	// at startup so a crash never loses track of a live booking.
	RecoverUnresolved(ctx context.Context) error
}

// Config carries the orchestrator's tunables.
type Config struct {
	QuoteTTL          time.Duration
	PollPolicy        RetryPolicy
	PriceTolerancePct float64
	RecheckDelay      time.Duration
	// RefundableOnly restricts rate selection to refundable rates, required
	// for automated and test flows where a cancellation must not bill.
	RefundableOnly bool
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Supplier     supplier.Client
	Pricing      pricing.PricingService
	Reservations reservationsRepo.ReservationRepository
	QuoteCache   *redis.Client
	Notifier     Notifier
	Scheduler    RecheckScheduler
	Clock        Clock
	Logger       *zap.Logger
	Cfg          Config

	// aborts tracks caller-abandon requests per correlation ID; consulted at
	// safe checkpoints, never interrupting an in-flight write.
	aborts sync.Map

	// wg tracks running attempt workers for clean shutdown.
	wg sync.WaitGroup
}

// Wait blocks until all running attempt workers reach a terminal state.
func (s *DefaultBookingService) Wait() {
	s.wg.Wait()
}
