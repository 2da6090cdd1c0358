package pricing

import (
	"fmt"

	"staygate/models"
)

// RuleError reports a malformed rule at authoring time. The engine never
// validates at match time; a rule set that passed ValidateRule is assumed
// well formed.
type RuleError struct {
	Field   string
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("invalid margin rule: %s: %s", e.Field, e.Message)
}

// ValidateRule checks an operator-submitted rule before it is persisted.
func ValidateRule(rule models.MarginRule) error {
	if rule.Name == "" {
		return &RuleError{Field: "name", Message: "must not be empty"}
	}

	switch rule.Type {
	case models.MarginTypePercentage, models.MarginTypeHybrid:
		if rule.Value < 0 || rule.Value > 100 {
			return &RuleError{Field: "value", Message: "percentage must be between 0 and 100"}
		}
	case models.MarginTypeFixed:
		// fixed ignores value entirely
	default:
		return &RuleError{Field: "type", Message: "must be percentage, fixed or hybrid"}
	}

	if rule.FixedAmount < 0 {
		return &RuleError{Field: "fixedAmount", Message: "must not be negative"}
	}

	switch rule.Status {
	case models.RuleStatusActive, models.RuleStatusInactive:
	default:
		return &RuleError{Field: "status", Message: "must be active or inactive"}
	}

	c := rule.Conditions
	if c.MinStarRating > 0 && c.MaxStarRating > 0 && c.MinStarRating > c.MaxStarRating {
		return &RuleError{Field: "conditions.starRating", Message: "min must not exceed max"}
	}
	if c.MinBookingValue > 0 && c.MaxBookingValue > 0 && c.MinBookingValue > c.MaxBookingValue {
		return &RuleError{Field: "conditions.bookingValue", Message: "min must not exceed max"}
	}
	if c.StartDate != nil && c.EndDate != nil && c.StartDate.After(*c.EndDate) {
		return &RuleError{Field: "conditions.dateRange", Message: "start must not be after end"}
	}
	switch c.CustomerType {
	case "", models.CustomerTypeAll, models.CustomerTypeB2C, models.CustomerTypeB2B:
	default:
		return &RuleError{Field: "conditions.customerType", Message: "must be all, b2c or b2b"}
	}
	return nil
}
