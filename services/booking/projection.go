package booking

import "staygate/models"

// ProjectStatus maps an attempt's internal state to the coarser customer
// facing reservation status. The mapping is total: every state, including
// one this code has never seen, projects to a defined status so API
// consumers never observe an undefined value.
func ProjectStatus(attempt models.BookingAttempt) string {
	switch attempt.State {
	case models.StateConfirmed, models.StateCancelRequested:
		return models.ReservationConfirmed
	case models.StateCancelled:
		return models.ReservationCancelled
	case models.StateFailed:
		// A poll timeout is ambiguous, not a denial: the supplier may still
		// complete the booking out of band.
		if attempt.FailureReason == models.FailureTimeout {
			return models.ReservationPending
		}
		return models.ReservationDenied
	default:
		return models.ReservationPending
	}
}
