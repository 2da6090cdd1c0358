package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	reservationsRepo "staygate/database/repository/reservations"
	rulesRepo "staygate/database/repository/rules"
	"staygate/models"
)

// fakeRuleRepo is an in-memory MarginRuleRepository keyed by rule ID.
type fakeRuleRepo struct {
	rules   map[string]models.MarginRule
	nextID  int
	ordered []string // last Reorder input
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{rules: make(map[string]models.MarginRule)}
}

func (f *fakeRuleRepo) Create(ctx context.Context, rule models.MarginRule) (string, error) {
	f.nextID++
	rule.ID = "rule-" + strconv.Itoa(f.nextID)
	f.rules[rule.ID] = rule
	return rule.ID, nil
}

func (f *fakeRuleRepo) Update(ctx context.Context, rule models.MarginRule) error {
	if _, ok := f.rules[rule.ID]; !ok {
		return rulesRepo.ErrRuleNotFound
	}
	f.rules[rule.ID] = rule
	return nil
}

func (f *fakeRuleRepo) GetByID(ctx context.Context, id string) (*models.MarginRule, error) {
	rule, ok := f.rules[id]
	if !ok {
		return nil, rulesRepo.ErrRuleNotFound
	}
	return &rule, nil
}

func (f *fakeRuleRepo) List(ctx context.Context) ([]models.MarginRule, error) {
	out := make([]models.MarginRule, 0, len(f.rules))
	for _, rule := range f.rules {
		out = append(out, rule)
	}
	return out, nil
}

func (f *fakeRuleRepo) ListActive(ctx context.Context) ([]models.MarginRule, error) {
	var out []models.MarginRule
	for _, rule := range f.rules {
		if rule.Status == models.RuleStatusActive {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) SetStatus(ctx context.Context, id string, status string) error {
	rule, ok := f.rules[id]
	if !ok {
		return rulesRepo.ErrRuleNotFound
	}
	rule.Status = status
	f.rules[id] = rule
	return nil
}

func (f *fakeRuleRepo) DeleteByID(ctx context.Context, id string) error {
	if _, ok := f.rules[id]; !ok {
		return rulesRepo.ErrRuleNotFound
	}
	delete(f.rules, id)
	return nil
}

func (f *fakeRuleRepo) Reorder(ctx context.Context, orderedIDs []string) error {
	for _, id := range orderedIDs {
		if _, ok := f.rules[id]; !ok {
			return rulesRepo.ErrRuleNotFound
		}
	}
	f.ordered = orderedIDs
	return nil
}

func (f *fakeRuleRepo) IncrementApplied(ctx context.Context, id string, margin float64) error {
	rule, ok := f.rules[id]
	if !ok {
		return rulesRepo.ErrRuleNotFound
	}
	rule.AppliedCount++
	rule.TotalRevenueGenerated += margin
	f.rules[id] = rule
	return nil
}

// fakeReservationLister satisfies the parts of ReservationRepository the
// admin handler touches.
type fakeReservationLister struct {
	records []models.ReservationRecord
}

func (f *fakeReservationLister) Create(ctx context.Context, record models.ReservationRecord) (string, error) {
	return "", nil
}

func (f *fakeReservationLister) GetByCorrelationID(ctx context.Context, correlationID string) (*models.ReservationRecord, error) {
	return nil, reservationsRepo.ErrReservationNotFound
}

func (f *fakeReservationLister) RecordTransition(ctx context.Context, correlationID string, transition models.StateTransition, attempt models.BookingAttempt, status string) error {
	return nil
}

func (f *fakeReservationLister) MarkMarginAttributed(ctx context.Context, correlationID string) (bool, error) {
	return false, nil
}

func (f *fakeReservationLister) ListByStatus(ctx context.Context, status string) ([]models.ReservationRecord, error) {
	var out []models.ReservationRecord
	for _, r := range f.records {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationLister) ListUnresolved(ctx context.Context) ([]models.ReservationRecord, error) {
	return nil, nil
}

func newAdminRouter(rules *fakeRuleRepo, reservations *fakeReservationLister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAdminHandler(rules, reservations, zap.NewNop())
	r := gin.New()
	r.GET("/api/admin/rules", h.ListRulesHandler)
	r.POST("/api/admin/rules", h.CreateRuleHandler)
	r.PUT("/api/admin/rules/reorder", h.ReorderRulesHandler)
	r.PUT("/api/admin/rules/:id", h.UpdateRuleHandler)
	r.PATCH("/api/admin/rules/:id/toggle", h.ToggleRuleHandler)
	r.DELETE("/api/admin/rules/:id", h.DeleteRuleHandler)
	r.GET("/api/admin/reservations", h.ListReservationsHandler)
	return r
}

func validRule() map[string]any {
	return map[string]any{
		"name":       "KSA summer",
		"type":       models.MarginTypePercentage,
		"value":      10,
		"priority":   50,
		"status":     models.RuleStatusActive,
		"conditions": map[string]any{"countries": []string{"SA"}},
	}
}

func TestCreateRuleHandler(t *testing.T) {
	rules := newFakeRuleRepo()
	r := newAdminRouter(rules, &fakeReservationLister{})

	w := doJSON(t, r, http.MethodPost, "/api/admin/rules", validRule())
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, rules.rules, 1)
}

func TestCreateRuleHandlerRejectsInvalidRule(t *testing.T) {
	rules := newFakeRuleRepo()
	r := newAdminRouter(rules, &fakeReservationLister{})

	body := validRule()
	body["value"] = -5
	w := doJSON(t, r, http.MethodPost, "/api/admin/rules", body)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, rules.rules, "an invalid rule must never reach the store")
}

func TestUpdateRuleHandlerNotFound(t *testing.T) {
	r := newAdminRouter(newFakeRuleRepo(), &fakeReservationLister{})
	w := doJSON(t, r, http.MethodPut, "/api/admin/rules/rule-missing", validRule())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleRuleHandlerFlipsStatus(t *testing.T) {
	rules := newFakeRuleRepo()
	id, _ := rules.Create(context.Background(), models.MarginRule{
		Name: "KSA summer", Status: models.RuleStatusActive,
		Type: models.MarginTypePercentage, Value: 10,
	})
	r := newAdminRouter(rules, &fakeReservationLister{})

	w := doJSON(t, r, http.MethodPatch, "/api/admin/rules/"+id+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RuleStatusInactive, rules.rules[id].Status)

	w = doJSON(t, r, http.MethodPatch, "/api/admin/rules/"+id+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RuleStatusActive, rules.rules[id].Status)
}

func TestDeleteRuleHandler(t *testing.T) {
	rules := newFakeRuleRepo()
	id, _ := rules.Create(context.Background(), models.MarginRule{Name: "old"})
	r := newAdminRouter(rules, &fakeReservationLister{})

	w := doJSON(t, r, http.MethodDelete, "/api/admin/rules/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, rules.rules)
}

func TestReorderRulesHandler(t *testing.T) {
	rules := newFakeRuleRepo()
	a, _ := rules.Create(context.Background(), models.MarginRule{Name: "a"})
	b, _ := rules.Create(context.Background(), models.MarginRule{Name: "b"})
	r := newAdminRouter(rules, &fakeReservationLister{})

	w := doJSON(t, r, http.MethodPut, "/api/admin/rules/reorder",
		map[string]any{"orderedIds": []string{b, a}})
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{b, a}, rules.ordered)
}

func TestListReservationsHandlerFiltersByStatus(t *testing.T) {
	reservations := &fakeReservationLister{records: []models.ReservationRecord{
		{CorrelationID: "corr-1", Status: models.ReservationPending},
		{CorrelationID: "corr-2", Status: models.ReservationConfirmed},
	}}
	r := newAdminRouter(newFakeRuleRepo(), reservations)

	w := doJSON(t, r, http.MethodGet, "/api/admin/reservations?status=confirmed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got []models.ReservationRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "corr-2", got[0].CorrelationID)

	// pending is the default view
	w = doJSON(t, r, http.MethodGet, "/api/admin/reservations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "corr-1", got[0].CorrelationID)
}
