package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	reservationsRepo "staygate/database/repository/reservations"
	rulesRepo "staygate/database/repository/rules"
	"staygate/models"
	"staygate/services/pricing"
	"staygate/utils"
)

// AdminHandler exposes margin-rule CRUD and read-only reservation queries to
// the back office.
type AdminHandler struct {
	Rules        rulesRepo.MarginRuleRepository
	Reservations reservationsRepo.ReservationRepository
	Logger       *zap.Logger
}

func NewAdminHandler(rules rulesRepo.MarginRuleRepository, reservations reservationsRepo.ReservationRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Rules: rules, Reservations: reservations, Logger: logger}
}

// ListRulesHandler returns all margin rules, highest priority first.
func (h *AdminHandler) ListRulesHandler(c *gin.Context) {
	rules, err := h.Rules.List(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list rules", err.Error())
		return
	}
	c.JSON(http.StatusOK, rules)
}

// CreateRuleHandler validates and stores a new margin rule. Malformed rules
// are rejected here, at authoring time, never at match time.
func (h *AdminHandler) CreateRuleHandler(c *gin.Context) {
	var rule models.MarginRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if err := pricing.ValidateRule(rule); err != nil {
		utils.JSONError(c, http.StatusUnprocessableEntity, "invalid margin rule", err.Error())
		return
	}

	id, err := h.Rules.Create(c.Request.Context(), rule)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to create rule", err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateRuleHandler validates and replaces an existing rule.
func (h *AdminHandler) UpdateRuleHandler(c *gin.Context) {
	var rule models.MarginRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	rule.ID = c.Param("id")
	if err := pricing.ValidateRule(rule); err != nil {
		utils.JSONError(c, http.StatusUnprocessableEntity, "invalid margin rule", err.Error())
		return
	}

	if err := h.Rules.Update(c.Request.Context(), rule); err != nil {
		if errors.Is(err, rulesRepo.ErrRuleNotFound) {
			utils.JSONError(c, http.StatusNotFound, "rule not found", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to update rule", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": rule.ID})
}

// ToggleRuleHandler flips a rule between active and inactive.
func (h *AdminHandler) ToggleRuleHandler(c *gin.Context) {
	id := c.Param("id")
	rule, err := h.Rules.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, rulesRepo.ErrRuleNotFound) {
			utils.JSONError(c, http.StatusNotFound, "rule not found", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to load rule", err.Error())
		return
	}

	status := models.RuleStatusActive
	if rule.Status == models.RuleStatusActive {
		status = models.RuleStatusInactive
	}
	if err := h.Rules.SetStatus(c.Request.Context(), id, status); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to toggle rule", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

// DeleteRuleHandler removes a rule.
func (h *AdminHandler) DeleteRuleHandler(c *gin.Context) {
	if err := h.Rules.DeleteByID(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, rulesRepo.ErrRuleNotFound) {
			utils.JSONError(c, http.StatusNotFound, "rule not found", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to delete rule", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// ReorderRulesHandler renumbers priorities in the given order, first ID
// highest, leaving no ties that would make rule selection ambiguous.
func (h *AdminHandler) ReorderRulesHandler(c *gin.Context) {
	var input struct {
		OrderedIDs []string `json:"orderedIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	if err := h.Rules.Reorder(c.Request.Context(), input.OrderedIDs); err != nil {
		if errors.Is(err, rulesRepo.ErrRuleNotFound) {
			utils.JSONError(c, http.StatusNotFound, "rule not found", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to reorder rules", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// ListReservationsHandler returns reservations, optionally filtered by
// customer-facing status.
func (h *AdminHandler) ListReservationsHandler(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		status = models.ReservationPending
	}
	records, err := h.Reservations.ListByStatus(c.Request.Context(), status)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list reservations", err.Error())
		return
	}
	c.JSON(http.StatusOK, records)
}
