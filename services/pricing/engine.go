package pricing

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	rulesRepo "staygate/database/repository/rules"
	reservationsRepo "staygate/database/repository/reservations"
	"staygate/models"
)

// PricingService selects and applies margin rules.
type PricingService interface {
	// SelectRule returns the highest-priority active rule matching the
	// context, or false when none matches. Repeated calls with an unchanged
	// rule set and context return the same rule.
	SelectRule(ctx context.Context, quote models.QuoteContext) (*models.MarginRule, bool, error)
	// MarkApplied attributes a confirmed booking's margin to its winning
	// rule, exactly once per correlation ID.
	MarkApplied(ctx context.Context, correlationID, ruleID string, margin float64) error
}

// DefaultPricingService implements PricingService against the rule store.
type DefaultPricingService struct {
	Rules        rulesRepo.MarginRuleRepository
	Reservations reservationsRepo.ReservationRepository
	Logger       *zap.Logger
}

// SelectRule loads active rules and evaluates each rule's compiled predicate
// against the context. Ties on priority go to the most recently created rule
// so the result stays deterministic.
func (s *DefaultPricingService) SelectRule(ctx context.Context, quote models.QuoteContext) (*models.MarginRule, bool, error) {
	rules, err := s.Rules.ListActive(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load active margin rules: %w", err)
	}

	var winner *models.MarginRule
	for i := range rules {
		rule := &rules[i]
		if !compile(rule.Conditions)(quote) {
			continue
		}
		if winner == nil ||
			rule.Priority > winner.Priority ||
			(rule.Priority == winner.Priority && rule.CreatedAt.After(winner.CreatedAt)) {
			winner = rule
		}
	}
	if winner == nil {
		return nil, false, nil
	}
	return winner, true, nil
}

// ApplyMargin computes the margin for a base price under the given rule and
// returns (margin, finalPrice), both rounded to 2 decimal places using
// round-half-away-from-zero. A nil rule passes the supplier's raw price
// through.
func ApplyMargin(basePrice float64, rule *models.MarginRule) (float64, float64) {
	if rule == nil {
		return 0, round2(basePrice)
	}

	var margin float64
	switch rule.Type {
	case models.MarginTypePercentage:
		margin = basePrice * rule.Value / 100
	case models.MarginTypeFixed:
		margin = rule.FixedAmount
	case models.MarginTypeHybrid:
		margin = math.Max(basePrice*rule.Value/100, rule.FixedAmount)
	}
	margin = round2(margin)
	return margin, round2(basePrice + margin)
}

// MarkApplied increments the rule's applied counters at confirmation time
// (never at quote time, so abandoned quotes don't inflate stats). The guard
// on the reservation makes the increment idempotent for a retried attempt.
func (s *DefaultPricingService) MarkApplied(ctx context.Context, correlationID, ruleID string, margin float64) error {
	if ruleID == "" {
		return nil
	}
	first, err := s.Reservations.MarkMarginAttributed(ctx, correlationID)
	if err != nil {
		return fmt.Errorf("failed to check margin attribution for %s: %w", correlationID, err)
	}
	if !first {
		s.Logger.Debug("margin already attributed, skipping",
			zap.String("correlationId", correlationID), zap.String("ruleId", ruleID))
		return nil
	}
	if err := s.Rules.IncrementApplied(ctx, ruleID, margin); err != nil {
		return fmt.Errorf("failed to increment applied stats for rule %s: %w", ruleID, err)
	}
	return nil
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
