package pricing

import (
	"strings"

	"staygate/models"
)

// Predicate evaluates one condition dimension against a quote context.
// Each dimension is independent so it can be tested on its own; a rule
// matches when every dimension predicate accepts the context.
type Predicate func(ctx models.QuoteContext) bool

// All combines dimension predicates conjunctively.
func All(preds ...Predicate) Predicate {
	return func(ctx models.QuoteContext) bool {
		for _, p := range preds {
			if !p(ctx) {
				return false
			}
		}
		return true
	}
}

// inSet matches when the value is in the set; an empty set matches anything.
func inSet(set []string, pick func(models.QuoteContext) string) Predicate {
	return func(ctx models.QuoteContext) bool {
		if len(set) == 0 {
			return true
		}
		v := pick(ctx)
		for _, s := range set {
			if strings.EqualFold(s, v) {
				return true
			}
		}
		return false
	}
}

func countryIn(set []string) Predicate {
	return inSet(set, func(ctx models.QuoteContext) string { return ctx.Country })
}

func cityIn(set []string) Predicate {
	return inSet(set, func(ctx models.QuoteContext) string { return ctx.City })
}

func brandIn(set []string) Predicate {
	return inSet(set, func(ctx models.QuoteContext) string { return ctx.HotelBrand })
}

func mealTypeIn(set []string) Predicate {
	return inSet(set, func(ctx models.QuoteContext) string { return ctx.MealType })
}

func starRatingBetween(min, max int) Predicate {
	return func(ctx models.QuoteContext) bool {
		if min > 0 && ctx.StarRating < min {
			return false
		}
		if max > 0 && ctx.StarRating > max {
			return false
		}
		return true
	}
}

func bookingValueBetween(min, max float64) Predicate {
	return func(ctx models.QuoteContext) bool {
		if min > 0 && ctx.BookingValue < min {
			return false
		}
		if max > 0 && ctx.BookingValue > max {
			return false
		}
		return true
	}
}

// checkInWithin matches when the check-in date falls inside the rule's date
// range; open ends match everything on that side.
func checkInWithin(c models.RuleConditions) Predicate {
	return func(ctx models.QuoteContext) bool {
		if c.StartDate != nil && ctx.CheckInDate.Before(*c.StartDate) {
			return false
		}
		if c.EndDate != nil && ctx.CheckInDate.After(*c.EndDate) {
			return false
		}
		return true
	}
}

func customerTypeIs(want string) Predicate {
	return func(ctx models.QuoteContext) bool {
		if want == "" || want == models.CustomerTypeAll {
			return true
		}
		return strings.EqualFold(want, ctx.CustomerType)
	}
}

// compile builds the full conjunctive predicate for a rule's conditions.
func compile(c models.RuleConditions) Predicate {
	return All(
		countryIn(c.Countries),
		cityIn(c.Cities),
		brandIn(c.HotelBrands),
		mealTypeIn(c.MealTypes),
		starRatingBetween(c.MinStarRating, c.MaxStarRating),
		bookingValueBetween(c.MinBookingValue, c.MaxBookingValue),
		checkInWithin(c),
		customerTypeIs(c.CustomerType),
	)
}
