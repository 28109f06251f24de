package repository

import (
	"context"
	"errors"
	"time"

	"github.com/brewstack/brewstack/internal/cache"
	"github.com/brewstack/brewstack/internal/domain/plan"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/logger"
	"github.com/brewstack/brewstack/internal/postgres"
	"github.com/brewstack/brewstack/internal/types"
	"gorm.io/gorm"
)

const planCacheExpiry = 15 * time.Minute

type planRepository struct {
	db     postgres.IClient
	logger *logger.Logger
	cache  cache.Cache
}

// NewPlanRepository creates a read-only plan catalog repository with a
// read-through cache. Plans referenced by live subscriptions are immutable,
// so cached entries cannot go stale in a way that affects billing math.
func NewPlanRepository(db postgres.IClient, logger *logger.Logger, c cache.Cache) plan.Repository {
	return &planRepository{db: db, logger: logger, cache: c}
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	key := cache.GenerateKey(cache.PrefixPlan, id)
	if cached, found := r.cache.Get(ctx, key); found {
		if p, ok := cached.(*plan.Plan); ok {
			return p, nil
		}
	}

	var p plan.Plan
	err := r.db.Querier(ctx).
		Where("id = ? AND status = ?", id, types.StatusPublished).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ierr.NewError("plan not found").
				WithHintf("Plan %s does not exist", id).
				WithReportableDetails(map[string]any{"plan_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load plan").
			Mark(ierr.ErrDatabase)
	}

	r.cache.Set(ctx, key, &p, planCacheExpiry)
	return &p, nil
}

func (r *planRepository) List(ctx context.Context) ([]*plan.Plan, error) {
	var plans []*plan.Plan
	err := r.db.Querier(ctx).
		Where("status = ?", types.StatusPublished).
		Order("price asc").
		Find(&plans).Error
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}
	return plans, nil
}
