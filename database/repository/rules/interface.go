package rulesRepo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"staygate/models"
)

// MarginRuleRepository persists operator-authored margin rules. ListActive is
// the read path used at quote time; IncrementApplied is the only mutation the
// pricing engine performs and must be atomic.
type MarginRuleRepository interface {
	Create(ctx context.Context, rule models.MarginRule) (string, error)
	Update(ctx context.Context, rule models.MarginRule) error
	GetByID(ctx context.Context, id string) (*models.MarginRule, error)
	List(ctx context.Context) ([]models.MarginRule, error)
	ListActive(ctx context.Context) ([]models.MarginRule, error)
	SetStatus(ctx context.Context, id string, status string) error
	DeleteByID(ctx context.Context, id string) error
	// Reorder renumbers priorities for the given rule IDs, first ID highest,
	// leaving no ties.
	Reorder(ctx context.Context, orderedIDs []string) error
	// IncrementApplied atomically bumps appliedCount and adds margin to
	// totalRevenueGenerated for the rule.
	IncrementApplied(ctx context.Context, id string, margin float64) error
}

type mongoRuleRepo struct {
	coll *mongo.Collection
}

// NewMongoRuleRepo returns a MarginRuleRepository backed by MongoDB.
func NewMongoRuleRepo(db *mongo.Database) MarginRuleRepository {
	return &mongoRuleRepo{
		coll: db.Collection("margin_rules"),
	}
}
