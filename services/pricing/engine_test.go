package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"staygate/models"
)

type fakeRuleStore struct {
	rules      []models.MarginRule
	increments map[string]int
}

func (f *fakeRuleStore) Create(ctx context.Context, rule models.MarginRule) (string, error) {
	f.rules = append(f.rules, rule)
	return rule.ID, nil
}
func (f *fakeRuleStore) Update(ctx context.Context, rule models.MarginRule) error { return nil }
func (f *fakeRuleStore) GetByID(ctx context.Context, id string) (*models.MarginRule, error) {
	for i := range f.rules {
		if f.rules[i].ID == id {
			return &f.rules[i], nil
		}
	}
	return nil, nil
}
func (f *fakeRuleStore) List(ctx context.Context) ([]models.MarginRule, error) { return f.rules, nil }
func (f *fakeRuleStore) ListActive(ctx context.Context) ([]models.MarginRule, error) {
	var active []models.MarginRule
	for _, r := range f.rules {
		if r.Status == models.RuleStatusActive {
			active = append(active, r)
		}
	}
	return active, nil
}
func (f *fakeRuleStore) SetStatus(ctx context.Context, id, status string) error { return nil }
func (f *fakeRuleStore) DeleteByID(ctx context.Context, id string) error        { return nil }
func (f *fakeRuleStore) Reorder(ctx context.Context, orderedIDs []string) error { return nil }
func (f *fakeRuleStore) IncrementApplied(ctx context.Context, id string, margin float64) error {
	if f.increments == nil {
		f.increments = make(map[string]int)
	}
	f.increments[id]++
	return nil
}

type fakeAttributionLedger struct {
	attributed map[string]bool
}

func (f *fakeAttributionLedger) Create(ctx context.Context, record models.ReservationRecord) (string, error) {
	return record.ID, nil
}
func (f *fakeAttributionLedger) GetByCorrelationID(ctx context.Context, correlationID string) (*models.ReservationRecord, error) {
	return nil, nil
}
func (f *fakeAttributionLedger) RecordTransition(ctx context.Context, correlationID string, transition models.StateTransition, attempt models.BookingAttempt, status string) error {
	return nil
}
func (f *fakeAttributionLedger) MarkMarginAttributed(ctx context.Context, correlationID string) (bool, error) {
	if f.attributed == nil {
		f.attributed = make(map[string]bool)
	}
	if f.attributed[correlationID] {
		return false, nil
	}
	f.attributed[correlationID] = true
	return true, nil
}
func (f *fakeAttributionLedger) ListByStatus(ctx context.Context, status string) ([]models.ReservationRecord, error) {
	return nil, nil
}
func (f *fakeAttributionLedger) ListUnresolved(ctx context.Context) ([]models.ReservationRecord, error) {
	return nil, nil
}

func newEngine(rules ...models.MarginRule) (*DefaultPricingService, *fakeRuleStore, *fakeAttributionLedger) {
	store := &fakeRuleStore{rules: rules}
	ledger := &fakeAttributionLedger{}
	return &DefaultPricingService{
		Rules:        store,
		Reservations: ledger,
		Logger:       zap.NewNop(),
	}, store, ledger
}

func activeRule(id, name string, priority int, createdAt time.Time, conditions models.RuleConditions) models.MarginRule {
	return models.MarginRule{
		ID:         id,
		Name:       name,
		Type:       models.MarginTypePercentage,
		Value:      10,
		Priority:   priority,
		Status:     models.RuleStatusActive,
		Conditions: conditions,
		CreatedAt:  createdAt,
	}
}

func TestSelectRulePicksHighestPriority(t *testing.T) {
	now := time.Now()
	cityRule := activeRule("city", "Riyadh uplift", 50, now,
		models.RuleConditions{Cities: []string{"Riyadh"}})
	countryRule := activeRule("country", "SA default", 10, now,
		models.RuleConditions{Countries: []string{"SA"}})
	engine, _, _ := newEngine(cityRule, countryRule)

	rule, ok, err := engine.SelectRule(context.Background(), models.QuoteContext{
		City:         "Riyadh",
		Country:      "SA",
		BookingValue: 1000,
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "city", rule.ID)
}

func TestSelectRuleTieBreaksOnRecency(t *testing.T) {
	older := activeRule("older", "older", 50, time.Now().Add(-time.Hour), models.RuleConditions{})
	newer := activeRule("newer", "newer", 50, time.Now(), models.RuleConditions{})
	engine, _, _ := newEngine(older, newer)

	rule, ok, err := engine.SelectRule(context.Background(), models.QuoteContext{BookingValue: 100})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "newer", rule.ID)
}

func TestSelectRuleIsDeterministic(t *testing.T) {
	a := activeRule("a", "a", 30, time.Now(), models.RuleConditions{})
	b := activeRule("b", "b", 30, time.Now().Add(time.Minute), models.RuleConditions{})
	engine, _, _ := newEngine(a, b)
	quote := models.QuoteContext{BookingValue: 500}

	first, ok, err := engine.SelectRule(context.Background(), quote)
	require.NoError(t, err)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok, err := engine.SelectRule(context.Background(), quote)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, first.ID, again.ID)
	}
}

func TestSelectRuleSkipsInactiveAndNonMatching(t *testing.T) {
	inactive := activeRule("inactive", "inactive", 90, time.Now(), models.RuleConditions{})
	inactive.Status = models.RuleStatusInactive
	mismatched := activeRule("mismatched", "mismatched", 80, time.Now(),
		models.RuleConditions{Countries: []string{"AE"}})
	engine, _, _ := newEngine(inactive, mismatched)

	_, ok, err := engine.SelectRule(context.Background(), models.QuoteContext{Country: "SA"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyMarginPercentage(t *testing.T) {
	rule := &models.MarginRule{Type: models.MarginTypePercentage, Value: 10}
	margin, final := ApplyMargin(1000, rule)
	assert.Equal(t, 100.00, margin)
	assert.Equal(t, 1100.00, final)
}

func TestApplyMarginHybridTakesLargerBranch(t *testing.T) {
	rule := &models.MarginRule{Type: models.MarginTypeHybrid, Value: 5, FixedAmount: 80}
	margin, final := ApplyMargin(1000, rule)
	assert.Equal(t, 80.00, margin)
	assert.Equal(t, 1080.00, final)

	// with a bigger base the percentage branch wins
	margin, _ = ApplyMargin(2000, rule)
	assert.Equal(t, 100.00, margin)
}

func TestApplyMarginFixedIgnoresBasePrice(t *testing.T) {
	rule := &models.MarginRule{Type: models.MarginTypeFixed, Value: 99, FixedAmount: 25}
	m1, _ := ApplyMargin(100, rule)
	m2, _ := ApplyMargin(10000, rule)
	assert.Equal(t, 25.00, m1)
	assert.Equal(t, m1, m2)
}

func TestApplyMarginMonotonicInBasePrice(t *testing.T) {
	pct := &models.MarginRule{Type: models.MarginTypePercentage, Value: 12}
	hybrid := &models.MarginRule{Type: models.MarginTypeHybrid, Value: 7, FixedAmount: 40}

	for _, rule := range []*models.MarginRule{pct, hybrid} {
		prev := -1.0
		for base := 10.0; base <= 5000; base += 97.3 {
			_, final := ApplyMargin(base, rule)
			assert.GreaterOrEqual(t, final, prev)
			prev = final
		}
	}
}

func TestApplyMarginNoRulePassesThrough(t *testing.T) {
	margin, final := ApplyMargin(432.10, nil)
	assert.Equal(t, 0.00, margin)
	assert.Equal(t, 432.10, final)
}

func TestApplyMarginRoundsHalfAwayFromZero(t *testing.T) {
	rule := &models.MarginRule{Type: models.MarginTypePercentage, Value: 5}
	margin, _ := ApplyMargin(2.5, rule) // 0.125 → 0.13, half rounds away from zero
	assert.Equal(t, 0.13, margin)

	rule = &models.MarginRule{Type: models.MarginTypePercentage, Value: 10}
	margin, final := ApplyMargin(19.99, rule)
	assert.Equal(t, 2.00, margin)
	assert.Equal(t, 21.99, final)
}

func TestMarkAppliedCountsOncePerCorrelationID(t *testing.T) {
	engine, store, _ := newEngine()

	require.NoError(t, engine.MarkApplied(context.Background(), "corr-1", "rule-1", 80))
	require.NoError(t, engine.MarkApplied(context.Background(), "corr-1", "rule-1", 80))
	assert.Equal(t, 1, store.increments["rule-1"])

	require.NoError(t, engine.MarkApplied(context.Background(), "corr-2", "rule-1", 80))
	assert.Equal(t, 2, store.increments["rule-1"])
}

func TestMarkAppliedWithoutRuleIsNoop(t *testing.T) {
	engine, store, ledger := newEngine()
	require.NoError(t, engine.MarkApplied(context.Background(), "corr-1", "", 0))
	assert.Empty(t, store.increments)
	assert.Empty(t, ledger.attributed)
}
