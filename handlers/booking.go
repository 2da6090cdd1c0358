package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	reservationsRepo "staygate/database/repository/reservations"
	"staygate/models"
	"staygate/services/booking"
	"staygate/utils"
)

// BookingHandler exposes the quote → confirm → status → cancel flow.
type BookingHandler struct {
	Svc    booking.BookingService
	Logger *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Svc: svc, Logger: logger}
}

// QuoteHandler prices a stay: supplier search plus margin policy.
func (h *BookingHandler) QuoteHandler(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	quote, err := h.Svc.Quote(c.Request.Context(), req)
	if err != nil {
		if booking.IsValidation(err) {
			utils.JSONError(c, http.StatusBadRequest, "invalid quote request", err.Error())
			return
		}
		utils.JSONError(c, http.StatusBadGateway, "failed to quote stay", err.Error())
		return
	}
	c.JSON(http.StatusOK, quote)
}

// ConfirmHandler starts a booking attempt for a priced quote. It returns the
// correlation ID immediately; progress is observable via GetHandler.
func (h *BookingHandler) ConfirmHandler(c *gin.Context) {
	var req models.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	correlationID, err := h.Svc.Confirm(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrQuoteExpired):
			utils.JSONError(c, http.StatusGone, "quote expired", "request a fresh quote and retry")
		case booking.IsValidation(err):
			utils.JSONError(c, http.StatusBadRequest, "invalid confirmation", err.Error())
		default:
			utils.JSONError(c, http.StatusInternalServerError, "failed to start booking", err.Error())
		}
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"correlationId": correlationID})
}

// GetHandler returns the reservation record for a correlation ID.
func (h *BookingHandler) GetHandler(c *gin.Context) {
	record, err := h.Svc.GetReservation(c.Request.Context(), c.Param("correlationID"))
	if err != nil {
		if errors.Is(err, reservationsRepo.ErrReservationNotFound) {
			utils.JSONError(c, http.StatusNotFound, "reservation not found", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to load reservation", err.Error())
		return
	}
	c.JSON(http.StatusOK, record)
}

// CancelHandler cancels a confirmed booking. Timed-out attempts should be
// rechecked rather than cancelled; the distinct messages steer the caller.
func (h *BookingHandler) CancelHandler(c *gin.Context) {
	err := h.Svc.Cancel(c.Request.Context(), c.Param("correlationID"))
	if err != nil {
		switch {
		case errors.Is(err, reservationsRepo.ErrReservationNotFound):
			utils.JSONError(c, http.StatusNotFound, "reservation not found", "")
		case booking.IsInvariantViolation(err):
			utils.JSONError(c, http.StatusConflict, "booking is not cancellable",
				"only confirmed bookings can be cancelled")
		default:
			utils.JSONError(c, http.StatusBadGateway, "cancellation failed", err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.ReservationCancelled})
}

// AbortHandler requests abandonment of an in-flight attempt. Honored only up
// to the submit boundary; afterwards the attempt runs to a terminal state.
func (h *BookingHandler) AbortHandler(c *gin.Context) {
	err := h.Svc.Abort(c.Request.Context(), c.Param("correlationID"))
	if err != nil {
		switch {
		case errors.Is(err, reservationsRepo.ErrReservationNotFound):
			utils.JSONError(c, http.StatusNotFound, "reservation not found", "")
		case booking.IsInvariantViolation(err):
			utils.JSONError(c, http.StatusConflict, "attempt already terminal", "")
		default:
			utils.JSONError(c, http.StatusInternalServerError, "failed to abort", err.Error())
		}
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "abort_requested"})
}
