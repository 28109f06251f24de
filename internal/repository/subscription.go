package repository

import (
	"context"
	"errors"
	"time"

	"github.com/brewstack/brewstack/internal/domain/subscription"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/logger"
	"github.com/brewstack/brewstack/internal/postgres"
	"github.com/brewstack/brewstack/internal/types"
	"gorm.io/gorm"
)

type subscriptionRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewSubscriptionRepository creates a subscription repository
func NewSubscriptionRepository(db postgres.IClient, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub.Version == 0 {
		sub.Version = 1
	}
	if err := r.db.Querier(ctx).Create(sub).Error; err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := r.db.Querier(ctx).
		Where("id = ?", id).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ierr.NewError("subscription not found").
				WithHintf("Subscription %s does not exist", id).
				WithReportableDetails(map[string]any{"subscription_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetByTenant(ctx context.Context, tenantID string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := r.db.Querier(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, types.StatusPublished).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ierr.NewError("subscription not found").
				WithHint("The tenant has no subscription").
				WithReportableDetails(map[string]any{"tenant_id": tenantID}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

// Update persists all mutable fields behind an optimistic version check.
// Losing writers see zero affected rows and get a version conflict.
func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	now := time.Now().UTC()
	res := r.db.Querier(ctx).
		Model(&subscription.Subscription{}).
		Where("id = ? AND version = ?", sub.ID, sub.Version).
		Updates(map[string]any{
			"plan_id":              sub.PlanID,
			"intended_plan_id":     sub.IntendedPlanID,
			"subscription_status":  sub.SubscriptionStatus,
			"current_period_start": sub.CurrentPeriodStart,
			"current_period_end":   sub.CurrentPeriodEnd,
			"cancelled_at":         sub.CancelledAt,
			"billing_interval":     sub.BillingInterval,
			"version":              sub.Version + 1,
			"updated_at":           now,
			"updated_by":           types.GetUserID(ctx),
		})
	if res.Error != nil {
		return ierr.WithError(res.Error).
			WithHint("Failed to update subscription").
			WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
			Mark(ierr.ErrDatabase)
	}
	if res.RowsAffected == 0 {
		return ierr.NewError("subscription was modified concurrently").
			WithHint("The subscription changed while processing, please retry").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
				"version":         sub.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	sub.Version++
	sub.UpdatedAt = now
	return nil
}

func (r *subscriptionRepository) ListDueForActivation(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	var subs []*subscription.Subscription
	q := r.db.Querier(ctx).
		Where("intended_plan_id IS NOT NULL AND current_period_end <= ? AND subscription_status = ?",
			now, types.SubscriptionStatusActive).
		Order("current_period_end asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&subs).Error; err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list due subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}
