package service

import (
	"context"
	"time"

	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/types"
)

// SweeperService promotes deferred plan changes whose billing period has
// ended. It is driven by the cron surface; each run is bounded by the
// configured batch size so a backlog drains across runs.
type SweeperService interface {
	// RunOnce promotes every due scheduled change visible at the given
	// instant and returns how many subscriptions were promoted. One
	// subscription failing does not abort the rest of the batch.
	RunOnce(ctx context.Context, now time.Time) (int, error)
}

type sweeperService struct {
	ServiceParams
	subscriptionSvc SubscriptionService
}

func NewSweeperService(params ServiceParams, subscriptionSvc SubscriptionService) SweeperService {
	return &sweeperService{
		ServiceParams:   params,
		subscriptionSvc: subscriptionSvc,
	}
}

func (s *sweeperService) RunOnce(ctx context.Context, now time.Time) (int, error) {
	due, err := s.SubRepo.ListDueForActivation(ctx, now, s.Config.Billing.SweeperBatchSize)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, sub := range due {
		ok, err := s.promoteOne(ctx, sub.ID, sub.TenantID, now)
		if err != nil {
			// One bad row must not starve the rest of the batch; log and
			// move on, the next run retries it.
			s.Logger.Errorw("failed to promote scheduled plan change",
				"subscription_id", sub.ID,
				"tenant_id", sub.TenantID,
				"error", err)
			continue
		}
		if ok {
			promoted++
		}
	}

	if promoted > 0 || len(due) > 0 {
		s.Logger.Infow("scheduled activation sweep complete",
			"due", len(due),
			"promoted", promoted)
	}
	return promoted, nil
}

// promoteOne applies a single subscription's deferred change and settles its
// scheduled transactions, atomically.
func (s *sweeperService) promoteOne(ctx context.Context, subscriptionID, tenantID string, now time.Time) (bool, error) {
	ctx = types.SetTenantID(ctx, tenantID)

	applied := false
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		sub, err := s.subscriptionSvc.PromoteScheduled(ctx, subscriptionID, now)
		if err != nil {
			if ierr.IsNotDue(err) {
				// Lost the race with another run; nothing to do.
				return nil
			}
			return err
		}
		applied = true

		// The deferred upgrade was prepaid at schedule time; flip those
		// transactions from SCHEDULED to PAID now that the plan is live.
		txns, err := s.TransactionRepo.ListScheduledByTenantAndPlan(ctx, tenantID, sub.PlanID)
		if err != nil {
			return err
		}
		for _, txn := range txns {
			if err := s.TransactionRepo.UpdateStatus(ctx, txn.ID, types.TransactionStatusPaid, nil); err != nil {
				return err
			}
		}
		return nil
	})
	return applied, err
}
