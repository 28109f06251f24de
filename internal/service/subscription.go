package service

import (
	"context"
	"time"

	"github.com/brewstack/brewstack/internal/api/dto"
	"github.com/brewstack/brewstack/internal/domain/activity"
	"github.com/brewstack/brewstack/internal/domain/subscription"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/types"
	"github.com/cenkalti/backoff/v4"
)

// maxMutationRetries bounds optimistic-lock retries per mutation
const maxMutationRetries = 3

// SubscriptionService owns the subscription record and its state transitions.
// Mutations are serialized per subscription through an optimistic version
// check on the row; losing writers reload and retry.
type SubscriptionService interface {
	// GetCurrentSubscription returns the subscription of the tenant in context
	GetCurrentSubscription(ctx context.Context) (*dto.SubscriptionResponse, error)

	// CreateSubscription creates the tenant's subscription record on signup
	CreateSubscription(ctx context.Context, planID string, now time.Time) (*subscription.Subscription, error)

	// ActivateImmediate switches the subscription to the new plan now and
	// resets the billing period to [now, now + 1 interval). Clears any
	// outstanding deferred change.
	ActivateImmediate(ctx context.Context, subscriptionID, newPlanID string, now time.Time) (*subscription.Subscription, error)

	// ScheduleDeferred records the intended plan without touching the current
	// plan, period or status. Fails with AlreadyScheduled when a different
	// plan is already intended.
	ScheduleDeferred(ctx context.Context, subscriptionID, newPlanID string) (*subscription.Subscription, error)

	// PromoteScheduled applies an outstanding deferred change once the
	// current period has elapsed. The new period starts exactly at the old
	// period end so consecutive periods tile without gaps or overlap.
	PromoteScheduled(ctx context.Context, subscriptionID string, now time.Time) (*subscription.Subscription, error)

	// CancelSubscription soft-cancels the tenant's subscription. The row is
	// kept; only the status transitions.
	CancelSubscription(ctx context.Context, now time.Time) (*dto.SubscriptionResponse, error)
}

type subscriptionService struct {
	ServiceParams
}

// NewSubscriptionService creates a new instance of SubscriptionService
func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{ServiceParams: params}
}

func (s *subscriptionService) GetCurrentSubscription(ctx context.Context) (*dto.SubscriptionResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Tenant context is required").
			Mark(ierr.ErrValidation)
	}

	sub, err := s.SubRepo.GetByTenant(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, planID string, now time.Time) (*subscription.Subscription, error) {
	p, err := s.PlanRepo.Get(ctx, planID)
	if err != nil {
		return nil, err
	}

	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		PlanID:             p.ID,
		SubscriptionStatus: types.SubscriptionStatusActive,
		Currency:           p.Currency,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   p.BillingInterval.NextPeriodEnd(now),
		BillingInterval:    p.BillingInterval,
		Version:            1,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}

	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"tenant_id", sub.TenantID,
		"plan_id", sub.PlanID)
	s.Activity.Record(ctx, sub.TenantID, activity.EventSubscriptionCreated, map[string]any{
		"subscription_id": sub.ID,
		"plan_id":         sub.PlanID,
	})
	return sub, nil
}

func (s *subscriptionService) ActivateImmediate(ctx context.Context, subscriptionID, newPlanID string, now time.Time) (*subscription.Subscription, error) {
	p, err := s.PlanRepo.Get(ctx, newPlanID)
	if err != nil {
		return nil, err
	}

	sub, err := s.mutate(ctx, subscriptionID, func(sub *subscription.Subscription) error {
		sub.PlanID = p.ID
		sub.IntendedPlanID = nil
		sub.SubscriptionStatus = types.SubscriptionStatusActive
		sub.CurrentPeriodStart = now
		sub.CurrentPeriodEnd = p.BillingInterval.NextPeriodEnd(now)
		sub.BillingInterval = p.BillingInterval
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("activated plan immediately",
		"subscription_id", sub.ID,
		"plan_id", sub.PlanID,
		"period_start", sub.CurrentPeriodStart,
		"period_end", sub.CurrentPeriodEnd)
	s.Activity.Record(ctx, sub.TenantID, activity.EventSubscriptionActivated, map[string]any{
		"subscription_id": sub.ID,
		"plan_id":         sub.PlanID,
	})
	return sub, nil
}

func (s *subscriptionService) ScheduleDeferred(ctx context.Context, subscriptionID, newPlanID string) (*subscription.Subscription, error) {
	p, err := s.PlanRepo.Get(ctx, newPlanID)
	if err != nil {
		return nil, err
	}

	sub, err := s.mutate(ctx, subscriptionID, func(sub *subscription.Subscription) error {
		if sub.HasScheduledChange() && *sub.IntendedPlanID != p.ID {
			// Last-writer-wins would silently discard the tenant's earlier
			// choice; the caller must clear or confirm it first.
			return ierr.NewError("a different plan change is already scheduled").
				WithHint("A plan change is already scheduled for the end of this period").
				WithReportableDetails(map[string]any{
					"subscription_id":   sub.ID,
					"intended_plan_id":  *sub.IntendedPlanID,
					"requested_plan_id": p.ID,
				}).
				Mark(ierr.ErrAlreadyScheduled)
		}
		sub.IntendedPlanID = &p.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("scheduled deferred plan change",
		"subscription_id", sub.ID,
		"intended_plan_id", p.ID,
		"activates_at", sub.CurrentPeriodEnd)
	s.Activity.Record(ctx, sub.TenantID, activity.EventSubscriptionScheduled, map[string]any{
		"subscription_id":  sub.ID,
		"intended_plan_id": p.ID,
		"activates_at":     sub.CurrentPeriodEnd,
	})
	return sub, nil
}

func (s *subscriptionService) PromoteScheduled(ctx context.Context, subscriptionID string, now time.Time) (*subscription.Subscription, error) {
	var promotedPlanID string
	sub, err := s.mutate(ctx, subscriptionID, func(sub *subscription.Subscription) error {
		if !sub.HasScheduledChange() || !sub.IsDue(now) {
			return ierr.NewError("scheduled change is not due").
				WithHint("No scheduled plan change is due for this subscription").
				WithReportableDetails(map[string]any{
					"subscription_id":    sub.ID,
					"current_period_end": sub.CurrentPeriodEnd,
				}).
				Mark(ierr.ErrNotDue)
		}

		p, err := s.PlanRepo.Get(ctx, *sub.IntendedPlanID)
		if err != nil {
			return err
		}

		// The new period starts at the old period end, not at now, so that
		// consecutive periods tile exactly.
		periodStart := sub.CurrentPeriodEnd
		promotedPlanID = p.ID

		sub.PlanID = p.ID
		sub.IntendedPlanID = nil
		sub.SubscriptionStatus = types.SubscriptionStatusActive
		sub.CurrentPeriodStart = periodStart
		sub.CurrentPeriodEnd = p.BillingInterval.NextPeriodEnd(periodStart)
		sub.BillingInterval = p.BillingInterval
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("promoted scheduled plan change",
		"subscription_id", sub.ID,
		"plan_id", promotedPlanID,
		"period_start", sub.CurrentPeriodStart,
		"period_end", sub.CurrentPeriodEnd)
	s.Activity.Record(ctx, sub.TenantID, activity.EventSubscriptionPromoted, map[string]any{
		"subscription_id": sub.ID,
		"plan_id":         promotedPlanID,
	})
	return sub, nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, now time.Time) (*dto.SubscriptionResponse, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Tenant context is required").
			Mark(ierr.ErrValidation)
	}

	current, err := s.SubRepo.GetByTenant(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}

	sub, err := s.mutate(ctx, current.ID, func(sub *subscription.Subscription) error {
		if sub.SubscriptionStatus == types.SubscriptionStatusCancelled {
			return nil
		}
		sub.SubscriptionStatus = types.SubscriptionStatusCancelled
		sub.CancelledAt = &now
		sub.IntendedPlanID = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("cancelled subscription",
		"subscription_id", sub.ID,
		"tenant_id", sub.TenantID)
	s.Activity.Record(ctx, sub.TenantID, activity.EventSubscriptionCancelled, map[string]any{
		"subscription_id": sub.ID,
	})
	return dto.NewSubscriptionResponse(sub), nil
}

// mutate loads the subscription, applies fn and writes it back behind the
// optimistic version check, retrying with backoff when a concurrent writer
// wins the race. Domain failures from fn are permanent and surface unchanged.
func (s *subscriptionService) mutate(ctx context.Context, subscriptionID string, fn func(*subscription.Subscription) error) (*subscription.Subscription, error) {
	var result *subscription.Subscription

	op := func() error {
		sub, err := s.SubRepo.Get(ctx, subscriptionID)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := fn(sub); err != nil {
			return backoff.Permanent(err)
		}
		if err := s.SubRepo.Update(ctx, sub); err != nil {
			if ierr.IsVersionConflict(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = sub
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxMutationRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	return result, nil
}
