package routes

import (
	"github.com/gin-gonic/gin"

	"staygate/handlers"
)

// RegisterRoutes registers all endpoints for the booking engine and the
// admin surface.
func RegisterRoutes(r *gin.Engine, bookingHandler *handlers.BookingHandler, adminHandler *handlers.AdminHandler) {
	booking := r.Group("/api/booking")
	{
		booking.POST("/quote", bookingHandler.QuoteHandler)
		booking.POST("/confirm", bookingHandler.ConfirmHandler)
		booking.GET("/:correlationID", bookingHandler.GetHandler)
		booking.POST("/:correlationID/cancel", bookingHandler.CancelHandler)
		booking.POST("/:correlationID/abort", bookingHandler.AbortHandler)
	}

	admin := r.Group("/api/admin")
	{
		admin.GET("/rules", adminHandler.ListRulesHandler)
		admin.POST("/rules", adminHandler.CreateRuleHandler)
		admin.PUT("/rules/reorder", adminHandler.ReorderRulesHandler)
		admin.PUT("/rules/:id", adminHandler.UpdateRuleHandler)
		admin.PATCH("/rules/:id/toggle", adminHandler.ToggleRuleHandler)
		admin.DELETE("/rules/:id", adminHandler.DeleteRuleHandler)
		admin.GET("/reservations", adminHandler.ListReservationsHandler)
	}
}
