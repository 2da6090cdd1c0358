package models

import "time"

// Margin rule types.
const (
	MarginTypePercentage = "percentage"
	MarginTypeFixed      = "fixed"
	MarginTypeHybrid     = "hybrid"
)

// Margin rule statuses.
const (
	RuleStatusActive   = "active"
	RuleStatusInactive = "inactive"
)

// Customer types a rule may be scoped to.
const (
	CustomerTypeAll = "all"
	CustomerTypeB2C = "b2c"
	CustomerTypeB2B = "b2b"
)

// RuleConditions is the closed set of dimensions a margin rule may constrain.
// An empty slice or zero bound on a dimension matches everything on that
// dimension; dimensions combine conjunctively, values within one dimension
// disjunctively.
type RuleConditions struct {
	Countries       []string   `bson:"countries,omitempty" json:"countries,omitempty"`
	Cities          []string   `bson:"cities,omitempty" json:"cities,omitempty"`
	MinStarRating   int        `bson:"min_star_rating,omitempty" json:"minStarRating,omitempty"`
	MaxStarRating   int        `bson:"max_star_rating,omitempty" json:"maxStarRating,omitempty"`
	HotelBrands     []string   `bson:"hotel_brands,omitempty" json:"hotelBrands,omitempty"`
	StartDate       *time.Time `bson:"start_date,omitempty" json:"startDate,omitempty"` // applies to check-in date
	EndDate         *time.Time `bson:"end_date,omitempty" json:"endDate,omitempty"`
	MinBookingValue float64    `bson:"min_booking_value,omitempty" json:"minBookingValue,omitempty"`
	MaxBookingValue float64    `bson:"max_booking_value,omitempty" json:"maxBookingValue,omitempty"`
	MealTypes       []string   `bson:"meal_types,omitempty" json:"mealTypes,omitempty"`
	CustomerType    string     `bson:"customer_type,omitempty" json:"customerType,omitempty"` // all | b2c | b2b
}

// MarginRule is an operator-authored pricing policy. Rules are validated at
// authoring time; the pricing engine treats a loaded rule set as well formed.
type MarginRule struct {
	ID          string         `bson:"id" json:"id"`
	Name        string         `bson:"name" json:"name"`
	Type        string         `bson:"type" json:"type"` // percentage | fixed | hybrid
	Value       float64        `bson:"value" json:"value"`
	FixedAmount float64        `bson:"fixed_amount" json:"fixedAmount"`
	Priority    int            `bson:"priority" json:"priority"` // higher wins
	Status      string         `bson:"status" json:"status"`
	Conditions  RuleConditions `bson:"conditions" json:"conditions"`

	// Aggregate counters, mutated only by the pricing engine after a
	// confirmed application. Incremented atomically in the store.
	AppliedCount          int64   `bson:"applied_count" json:"appliedCount"`
	TotalRevenueGenerated float64 `bson:"total_revenue_generated" json:"totalRevenueGenerated"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// QuoteContext is the ephemeral input the pricing engine matches rules
// against. It is never persisted.
type QuoteContext struct {
	Country      string
	City         string
	StarRating   int
	HotelBrand   string
	BookingValue float64 // base price before margin
	CheckInDate  time.Time
	MealType     string
	CustomerType string
}
