package rulesRepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staygate/models"
)

// ErrRuleNotFound is returned when no rule matches the given ID.
var ErrRuleNotFound = errors.New("margin rule not found")

// Create inserts a new margin rule and returns its ID.
func (r *mongoRuleRepo) Create(ctx context.Context, rule models.MarginRule) (string, error) {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, rule); err != nil {
		return "", err
	}
	return rule.ID, nil
}

// Update replaces the mutable fields of an existing rule. The aggregate
// counters are left untouched; only IncrementApplied may move them.
func (r *mongoRuleRepo) Update(ctx context.Context, rule models.MarginRule) error {
	update := bson.M{"$set": bson.M{
		"name":         rule.Name,
		"type":         rule.Type,
		"value":        rule.Value,
		"fixed_amount": rule.FixedAmount,
		"priority":     rule.Priority,
		"status":       rule.Status,
		"conditions":   rule.Conditions,
		"updated_at":   time.Now(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": rule.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// GetByID returns a rule by its ID.
func (r *mongoRuleRepo) GetByID(ctx context.Context, id string) (*models.MarginRule, error) {
	var rule models.MarginRule
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&rule)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// List returns all rules, highest priority first.
func (r *mongoRuleRepo) List(ctx context.Context) ([]models.MarginRule, error) {
	return r.find(ctx, bson.M{})
}

// ListActive returns all rules with status active, highest priority first.
func (r *mongoRuleRepo) ListActive(ctx context.Context) ([]models.MarginRule, error) {
	return r.find(ctx, bson.M{"status": models.RuleStatusActive})
}

func (r *mongoRuleRepo) find(ctx context.Context, filter bson.M) ([]models.MarginRule, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "priority", Value: -1},
		{Key: "created_at", Value: -1},
	})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rules []models.MarginRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// SetStatus toggles a rule between active and inactive.
func (r *mongoRuleRepo) SetStatus(ctx context.Context, id string, status string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// DeleteByID removes a rule by ID.
func (r *mongoRuleRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// Reorder renumbers priorities so the first ID gets the highest priority and
// every rule ends with a distinct value, keeping rule selection deterministic.
func (r *mongoRuleRepo) Reorder(ctx context.Context, orderedIDs []string) error {
	for i, id := range orderedIDs {
		priority := (len(orderedIDs) - i) * 10
		res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{
			"priority":   priority,
			"updated_at": time.Now(),
		}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrRuleNotFound
		}
	}
	return nil
}

// IncrementApplied bumps the applied counters in a single atomic update so
// concurrent confirmations cannot lose increments.
func (r *mongoRuleRepo) IncrementApplied(ctx context.Context, id string, margin float64) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$inc": bson.M{
		"applied_count":           1,
		"total_revenue_generated": margin,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRuleNotFound
	}
	return nil
}
