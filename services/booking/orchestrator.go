package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	reservationsRepo "staygate/database/repository/reservations"
	"staygate/models"
	"staygate/services/supplier"
)

// Confirm creates the booking attempt for a priced quote, persists the
// initial reservation record and starts the attempt worker. The correlation
// ID is returned immediately; callers observe progress via the ledger.
//
// A caller-supplied correlation ID makes the call idempotent: a replay for
// the same quote returns the existing attempt, and the quote itself is
// consumed atomically so two concurrent confirms cannot both win it.
func (s *DefaultBookingService) Confirm(ctx context.Context, req models.ConfirmRequest) (string, error) {
	if len(req.GuestDetails.Guests) == 0 {
		return "", &ValidationError{Field: "guestDetails.guests", Message: "at least one guest is required"}
	}
	if req.GuestDetails.Email == "" {
		return "", &ValidationError{Field: "guestDetails.email", Message: "contact email is required"}
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	} else {
		existing, err := s.Reservations.GetByCorrelationID(ctx, correlationID)
		switch {
		case err == nil:
			if existing.QuoteID != req.QuoteID {
				return "", &ValidationError{Field: "correlationId",
					Message: "already used for a different quote"}
			}
			s.Logger.Info("confirm replayed, returning existing attempt",
				zap.String("correlationId", correlationID))
			return correlationID, nil
		case errors.Is(err, reservationsRepo.ErrReservationNotFound):
			// fresh correlation ID, proceed
		default:
			return "", err
		}
	}

	quote, err := s.consumeQuote(ctx, req.QuoteID)
	if err != nil {
		return "", err
	}

	now := s.Clock.Now()

	attempt := models.BookingAttempt{
		CorrelationID:    correlationID,
		MatchHash:        quote.Rate.MatchHash,
		BookHash:         quote.Rate.BookHash,
		State:            models.StateQuoted,
		GuestDetails:     req.GuestDetails,
		PaymentSelection: req.Payment,
		Refundable:       quote.Rate.Refundable,
		AppliedRuleID:    quote.RuleID,
		MarginAmount:     quote.MarginAmount,
		BasePrice:        quote.BasePrice,
		FinalPrice:       quote.FinalPrice,
		Currency:         quote.Currency,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	record := models.ReservationRecord{
		CorrelationID: correlationID,
		QuoteID:       req.QuoteID,
		HotelID:       quote.HotelID,
		HotelBrand:    quote.HotelBrand,
		City:          quote.City,
		Country:       quote.Country,
		StarRating:    quote.StarRating,
		CheckIn:       quote.CheckIn,
		CheckOut:      quote.CheckOut,
		GuestCount:    quote.GuestCount,
		RoomName:      quote.Rate.RoomName,
		MealType:      quote.Rate.MealType,
		Status:        ProjectStatus(attempt),
		Attempt:       attempt,
		PriceBreakdown: models.PriceBreakdown{
			BasePrice:    quote.BasePrice,
			MarginAmount: quote.MarginAmount,
			FinalPrice:   quote.FinalPrice,
			Currency:     quote.Currency,
			RuleName:     quote.RuleName,
		},
		CustomerEmail: req.GuestDetails.Email,
		CustomerPhone: req.GuestDetails.Phone,
	}
	if _, err := s.Reservations.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to create reservation record: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(context.Background(), attempt)
	}()

	s.Logger.Info("booking attempt started",
		zap.String("correlationId", correlationID),
		zap.String("hotelId", quote.HotelID),
		zap.Bool("refundable", attempt.Refundable))
	return correlationID, nil
}

// run drives one attempt through lock → create → submit → poll. Each
// transition is written to the ledger before the next remote call.
func (s *DefaultBookingService) run(ctx context.Context, attempt models.BookingAttempt) {
	if s.abortRequested(attempt.CorrelationID) {
		s.fail(ctx, &attempt, models.FailureAborted, "", "abandoned before locking")
		return
	}

	if err := s.lock(ctx, &attempt); err != nil {
		return
	}

	if s.abortRequested(attempt.CorrelationID) {
		s.fail(ctx, &attempt, models.FailureAborted, "", "abandoned after lock")
		return
	}

	form, err := s.createForm(ctx, &attempt)
	if err != nil {
		return
	}

	payment, ok := s.selectPayment(attempt.PaymentSelection, form.PaymentOptions)
	if !ok {
		s.fail(ctx, &attempt, models.FailureInvalidPayment, "",
			"selected payment type not offered by supplier")
		return
	}
	attempt.PaymentSelection = &payment

	// Last safe checkpoint: once the submit is sent the supplier has the
	// request and the attempt must run to a terminal state.
	if s.abortRequested(attempt.CorrelationID) {
		s.fail(ctx, &attempt, models.FailureAborted, "", "abandoned before submit")
		return
	}

	if err := s.submit(ctx, &attempt, payment); err != nil {
		return
	}

	s.poll(ctx, &attempt)
}

// lock obtains the bookHash. Rates that already carry one from search are
// not re-locked: the extra round trip risks a needless price re-validation.
func (s *DefaultBookingService) lock(ctx context.Context, attempt *models.BookingAttempt) error {
	if attempt.BookHash != "" {
		return s.transition(ctx, attempt, models.StateLocked, "bookHash carried from search")
	}

	if err := s.transition(ctx, attempt, models.StateLocking, ""); err != nil {
		return err
	}

	lock, err := s.Supplier.LockRate(ctx, attempt.MatchHash)
	if err != nil {
		s.failFromSupplierErr(ctx, attempt, "lock", err)
		return err
	}

	// The locked price is authoritative. A material increase over the quoted
	// base is surfaced as price-changed instead of silently honoring a worse
	// price for the customer.
	tolerance := attempt.BasePrice * s.Cfg.PriceTolerancePct / 100
	if lock.Price > attempt.BasePrice+tolerance {
		err := fmt.Errorf("locked price %.2f exceeds quoted %.2f", lock.Price, attempt.BasePrice)
		s.fail(ctx, attempt, models.FailurePriceChanged, supplier.CodePriceChanged, err.Error())
		return err
	}

	attempt.BookHash = lock.BookHash
	return s.transition(ctx, attempt, models.StateLocked, "")
}

func (s *DefaultBookingService) createForm(ctx context.Context, attempt *models.BookingAttempt) (*models.BookingForm, error) {
	if err := s.transition(ctx, attempt, models.StateCreating, ""); err != nil {
		return nil, err
	}

	form, err := s.Supplier.CreateBookingForm(ctx, attempt.CorrelationID, attempt.BookHash)
	if err != nil {
		// A restricted/sandbox response is definitive: no retry budget is
		// burned and no submit call is made.
		s.failFromSupplierErr(ctx, attempt, "create booking form", err)
		return nil, err
	}

	attempt.OrderID = form.OrderID
	if err := s.transition(ctx, attempt, models.StateAwaitingGuestConfirm, ""); err != nil {
		return nil, err
	}
	return form, nil
}

// selectPayment validates the caller's payment choice against the options
// the supplier offered at form creation. A nil selection defaults to the
// first offered option.
func (s *DefaultBookingService) selectPayment(selected *models.PaymentOption, offered []models.PaymentOption) (models.PaymentOption, bool) {
	if len(offered) == 0 {
		return models.PaymentOption{}, false
	}
	if selected == nil {
		return offered[0], true
	}
	for _, opt := range offered {
		if opt.Type == selected.Type && opt.Currency == selected.Currency && opt.Amount == selected.Amount {
			return opt, true
		}
	}
	return models.PaymentOption{}, false
}

func (s *DefaultBookingService) submit(ctx context.Context, attempt *models.BookingAttempt, payment models.PaymentOption) error {
	if err := s.transition(ctx, attempt, models.StateSubmitting, ""); err != nil {
		return err
	}

	err := s.Supplier.SubmitBooking(ctx, attempt.CorrelationID, attempt.GuestDetails, payment)
	if err != nil && supplier.IsTransient(err) {
		// Unknown outcome, not failure: the status poll below resolves what
		// actually happened. Blindly resubmitting could double-book without
		// the correlation-ID guard, and costs nothing with it.
		s.Logger.Warn("submit outcome unknown, resolving via status poll",
			zap.String("correlationId", attempt.CorrelationID), zap.Error(err))
		err = nil
	}
	if err != nil {
		s.failFromSupplierErr(ctx, attempt, "submit booking", err)
		return err
	}
	return s.transition(ctx, attempt, models.StatePolling, "")
}

// poll reads booking status at a fixed interval with a bounded number of
// attempts. Budget exhaustion is terminal-but-ambiguous: the reservation
// stays pending and an out-of-band recheck is scheduled.
func (s *DefaultBookingService) poll(ctx context.Context, attempt *models.BookingAttempt) {
	for i := 0; i < s.Cfg.PollPolicy.Attempts; i++ {
		if i > 0 {
			if err := s.Cfg.PollPolicy.Wait(ctx, s.Clock); err != nil {
				break
			}
		}

		status, err := s.Supplier.Status(ctx, attempt.CorrelationID)
		if err != nil {
			// A failed status read burns one attempt but is not an answer.
			s.Logger.Warn("status poll failed",
				zap.String("correlationId", attempt.CorrelationID),
				zap.Int("attempt", i+1), zap.Error(err))
			continue
		}

		switch status.Status {
		case models.SupplierStatusOK:
			attempt.OrderID = status.OrderID
			s.confirm(ctx, attempt)
			return
		case models.SupplierStatusError:
			s.fail(ctx, attempt, models.FailureSupplierError, status.ErrorCode, "supplier reported booking error")
			return
		}
	}

	s.fail(ctx, attempt, models.FailureTimeout, "", "poll budget exhausted without terminal supplier response")
	if err := s.Scheduler.ScheduleStatusRecheck(ctx, attempt.CorrelationID, s.Cfg.RecheckDelay); err != nil {
		s.Logger.Error("failed to schedule status recheck",
			zap.String("correlationId", attempt.CorrelationID), zap.Error(err))
	}
}

func (s *DefaultBookingService) confirm(ctx context.Context, attempt *models.BookingAttempt) {
	if err := s.transition(ctx, attempt, models.StateConfirmed, ""); err != nil {
		return
	}
	s.aborts.Delete(attempt.CorrelationID)

	// Margin stats are attributed at confirmation, exactly once per
	// correlation ID; a retried attempt cannot double-count.
	if err := s.Pricing.MarkApplied(ctx, attempt.CorrelationID, attempt.AppliedRuleID, attempt.MarginAmount); err != nil {
		s.Logger.Error("failed to attribute margin",
			zap.String("correlationId", attempt.CorrelationID), zap.Error(err))
	}

	s.notify(ctx, attempt, models.EventBookingConfirmed)
	s.Logger.Info("booking confirmed",
		zap.String("correlationId", attempt.CorrelationID),
		zap.String("orderId", attempt.OrderID))
}

// fail settles the attempt in Failed with the given reason. The reason and
// code are attached before the transition is recorded so the ledger always
// explains why.
func (s *DefaultBookingService) fail(ctx context.Context, attempt *models.BookingAttempt, reason, code, note string) {
	attempt.FailureReason = reason
	attempt.FailureCode = code
	if err := s.transition(ctx, attempt, models.StateFailed, note); err != nil {
		return
	}
	s.aborts.Delete(attempt.CorrelationID)
	s.notify(ctx, attempt, models.EventBookingFailed)
	s.Logger.Warn("booking attempt failed",
		zap.String("correlationId", attempt.CorrelationID),
		zap.String("reason", reason),
		zap.String("code", code))
}

// failFromSupplierErr classifies a remote-call error into the failure
// taxonomy at the point of call.
func (s *DefaultBookingService) failFromSupplierErr(ctx context.Context, attempt *models.BookingAttempt, op string, err error) {
	switch {
	case supplier.IsRejected(err):
		code := supplier.RejectionCode(err)
		reason := models.FailureSupplierError
		switch code {
		case supplier.CodeRestricted:
			reason = models.FailureSandboxRestriction
		case supplier.CodePriceChanged:
			reason = models.FailurePriceChanged
		}
		s.fail(ctx, attempt, reason, code, op+" rejected by supplier")
	case supplier.IsTransient(err):
		s.fail(ctx, attempt, models.FailureTransport, "", op+" failed after bounded retries")
	default:
		s.fail(ctx, attempt, models.FailureSupplierError, "", op+": "+err.Error())
	}
}

// transition records one state-machine edge in the ledger. Illegal edges
// fail fast as invariant violations and leave state unchanged.
func (s *DefaultBookingService) transition(ctx context.Context, attempt *models.BookingAttempt, to models.AttemptState, note string) error {
	return s.record(ctx, attempt, to, note, false)
}

func (s *DefaultBookingService) record(ctx context.Context, attempt *models.BookingAttempt, to models.AttemptState, note string, force bool) error {
	from := attempt.State
	if !force && !models.CanTransition(from, to) {
		err := &InvariantViolationError{Op: "transition to " + string(to), State: from}
		s.Logger.Error("illegal state transition",
			zap.String("correlationId", attempt.CorrelationID),
			zap.String("from", string(from)), zap.String("to", string(to)))
		return err
	}

	attempt.State = to
	attempt.UpdatedAt = s.Clock.Now()
	t := models.StateTransition{From: from, To: to, At: attempt.UpdatedAt, Note: note}
	if err := s.Reservations.RecordTransition(ctx, attempt.CorrelationID, t, *attempt, ProjectStatus(*attempt)); err != nil {
		return fmt.Errorf("failed to record transition %s → %s: %w", from, to, err)
	}
	return nil
}

func (s *DefaultBookingService) notify(ctx context.Context, attempt *models.BookingAttempt, event string) {
	record, err := s.Reservations.GetByCorrelationID(ctx, attempt.CorrelationID)
	if err != nil {
		s.Logger.Error("failed to load reservation for notification",
			zap.String("correlationId", attempt.CorrelationID), zap.Error(err))
		return
	}
	payload := models.BookingEventPayload{
		Event:          event,
		ReservationID:  record.ID,
		CorrelationID:  attempt.CorrelationID,
		CustomerEmail:  record.CustomerEmail,
		CustomerPhone:  record.CustomerPhone,
		Status:         record.Status,
		FailureReason:  attempt.FailureReason,
		PriceBreakdown: record.PriceBreakdown,
	}
	// Notification failures are isolated: logged, never promoted into a
	// booking failure.
	if err := s.Notifier.PublishBookingEvent(ctx, payload); err != nil {
		s.Logger.Error("failed to publish booking event",
			zap.String("correlationId", attempt.CorrelationID),
			zap.String("event", event), zap.Error(err))
	}
}

// Abort flags the attempt for cancellation at the next safe checkpoint. It
// never interrupts an in-flight write.
func (s *DefaultBookingService) Abort(ctx context.Context, correlationID string) error {
	record, err := s.Reservations.GetByCorrelationID(ctx, correlationID)
	if err != nil {
		return err
	}
	if record.Attempt.State.Terminal() {
		return &InvariantViolationError{Op: "abort", State: record.Attempt.State}
	}
	s.aborts.Store(correlationID, true)
	return nil
}

func (s *DefaultBookingService) abortRequested(correlationID string) bool {
	_, ok := s.aborts.Load(correlationID)
	return ok
}

// Cancel cancels a confirmed booking with the supplier. It is only permitted
// from Confirmed (or as a retry from CancelRequested); any other state is an
// invariant violation and leaves the attempt untouched.
func (s *DefaultBookingService) Cancel(ctx context.Context, correlationID string) error {
	record, err := s.Reservations.GetByCorrelationID(ctx, correlationID)
	if err != nil {
		return err
	}
	attempt := record.Attempt

	switch attempt.State {
	case models.StateConfirmed:
		if err := s.transition(ctx, &attempt, models.StateCancelRequested, ""); err != nil {
			return err
		}
	case models.StateCancelRequested:
		// retrying a previously failed cancel
	default:
		return &InvariantViolationError{Op: "cancel", State: attempt.State}
	}

	if !attempt.Refundable {
		s.Logger.Warn("cancelling a non-refundable booking, supplier may bill",
			zap.String("correlationId", correlationID))
	}

	if err := s.Supplier.CancelBooking(ctx, correlationID, attempt.OrderID); err != nil {
		return fmt.Errorf("supplier cancel failed: %w", err)
	}
	if err := s.transition(ctx, &attempt, models.StateCancelled, ""); err != nil {
		return err
	}
	s.notify(ctx, &attempt, models.EventBookingCancelled)
	return nil
}

// GetReservation returns the current ledger record.
func (s *DefaultBookingService) GetReservation(ctx context.Context, correlationID string) (*models.ReservationRecord, error) {
	return s.Reservations.GetByCorrelationID(ctx, correlationID)
}

// RecheckStatus resolves an ambiguous attempt by re-reading supplier status.
// It settles attempts that timed out in the poll loop or were cut off by a
// crash; attempts the supplier has confirmed are promoted to Confirmed even
// though their local state was already terminal-but-ambiguous.
func (s *DefaultBookingService) RecheckStatus(ctx context.Context, correlationID string) error {
	record, err := s.Reservations.GetByCorrelationID(ctx, correlationID)
	if err != nil {
		return err
	}
	attempt := record.Attempt

	switch attempt.State {
	case models.StateConfirmed, models.StateCancelled:
		return nil
	case models.StateFailed:
		if attempt.FailureReason != models.FailureTimeout {
			return nil
		}
	}

	status, err := s.Supplier.Status(ctx, correlationID)
	if err != nil {
		// An attempt cut off before Submitting has a correlation ID the
		// supplier never received. A definitive rejection for it means nothing
		// was booked, so the attempt is settled locally instead of being
		// re-queried forever.
		if supplier.IsRejected(err) && !reachedSubmit(attempt.State) {
			attempt.FailureReason = models.FailureAborted
			attempt.FailureCode = supplier.RejectionCode(err)
			if err := s.record(ctx, &attempt, models.StateFailed, "interrupted before submit, unknown to supplier", true); err != nil {
				return err
			}
			s.notify(ctx, &attempt, models.EventBookingFailed)
			return nil
		}
		return fmt.Errorf("status recheck failed for %s: %w", correlationID, err)
	}

	switch status.Status {
	case models.SupplierStatusOK:
		attempt.OrderID = status.OrderID
		attempt.FailureReason = ""
		attempt.FailureCode = ""
		if err := s.record(ctx, &attempt, models.StateConfirmed, "settled by out-of-band recheck", true); err != nil {
			return err
		}
		if err := s.Pricing.MarkApplied(ctx, correlationID, attempt.AppliedRuleID, attempt.MarginAmount); err != nil {
			s.Logger.Error("failed to attribute margin",
				zap.String("correlationId", correlationID), zap.Error(err))
		}
		s.notify(ctx, &attempt, models.EventBookingConfirmed)
	case models.SupplierStatusError:
		attempt.FailureReason = models.FailureSupplierError
		attempt.FailureCode = status.ErrorCode
		if err := s.record(ctx, &attempt, models.StateFailed, "settled by out-of-band recheck", true); err != nil {
			return err
		}
		s.notify(ctx, &attempt, models.EventBookingFailed)
	default:
		// still processing: come back later
		return s.Scheduler.ScheduleStatusRecheck(ctx, correlationID, s.Cfg.RecheckDelay)
	}
	return nil
}

// reachedSubmit reports whether the attempt's submit request could have been
// handed to the supplier. Failed only reaches recheck as an ambiguous poll
// timeout, which implies a completed submit.
func reachedSubmit(state models.AttemptState) bool {
	switch state {
	case models.StateSubmitting, models.StatePolling, models.StateFailed:
		return true
	}
	return false
}

// RecoverUnresolved rechecks every reservation whose attempt is not
// terminal. Run once at startup: a crash between a supplier call and the
// ledger write is resolved by re-reading supplier status, never by
// resubmitting.
func (s *DefaultBookingService) RecoverUnresolved(ctx context.Context) error {
	records, err := s.Reservations.ListUnresolved(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unresolved reservations: %w", err)
	}
	for _, record := range records {
		if err := s.RecheckStatus(ctx, record.CorrelationID); err != nil {
			s.Logger.Error("recovery recheck failed",
				zap.String("correlationId", record.CorrelationID), zap.Error(err))
		}
	}
	if len(records) > 0 {
		s.Logger.Info("recovery pass finished", zap.Int("unresolved", len(records)))
	}
	return nil
}
