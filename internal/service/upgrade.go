package service

import (
	"context"
	"time"

	"github.com/brewstack/brewstack/internal/api/dto"
	"github.com/brewstack/brewstack/internal/domain/proration"
	"github.com/brewstack/brewstack/internal/domain/subscription"
	"github.com/brewstack/brewstack/internal/domain/transaction"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/types"
	"github.com/shopspring/decimal"
)

// UpgradeService orchestrates plan changes: it decides between immediate and
// end-of-period application, runs proration, mutates the subscription record
// and settles the payment transaction. All mutations for one paid order run
// in a single database transaction, so a failure leaves no partial state and
// a redelivered payment event can safely retry.
type UpgradeService interface {
	// PreviewUpgrade returns the proration quote for an immediate change to
	// the given plan. Nothing is mutated.
	PreviewUpgrade(ctx context.Context, req dto.PreviewUpgradeRequest, now time.Time) (*dto.ProrationPreviewResponse, error)

	// InitiateUpgrade creates the pending payment transaction for a plan
	// change. The gateway checkout happens outside this core; settlement
	// arrives through ProcessPaidOrder.
	InitiateUpgrade(ctx context.Context, req dto.UpgradeRequest, now time.Time) (*dto.UpgradeResponse, error)

	// ProcessPaidOrder settles a paid order. Idempotent on the order's
	// transaction: terminal transactions are acknowledged without mutation.
	// Returns true when the call was a duplicate no-op.
	ProcessPaidOrder(ctx context.Context, orderID, gatewayTransactionID string, chargedAmount decimal.Decimal, now time.Time) (bool, error)

	// MarkOrderFailed records a failed gateway charge for a pending order
	MarkOrderFailed(ctx context.Context, orderID string) error
}

type upgradeService struct {
	ServiceParams
	subscriptionSvc SubscriptionService
	compensationSvc CompensationService
	calculator      proration.Calculator
}

// NewUpgradeService creates a new instance of UpgradeService
func NewUpgradeService(
	params ServiceParams,
	subscriptionSvc SubscriptionService,
	compensationSvc CompensationService,
) UpgradeService {
	return &upgradeService{
		ServiceParams:   params,
		subscriptionSvc: subscriptionSvc,
		compensationSvc: compensationSvc,
		calculator:      proration.NewCalculator(),
	}
}

func (s *upgradeService) PreviewUpgrade(ctx context.Context, req dto.PreviewUpgradeRequest, now time.Time) (*dto.ProrationPreviewResponse, error) {
	if req.PlanID == "" {
		return nil, ierr.NewError("plan_id is required").
			WithHint("Please select a plan").
			Mark(ierr.ErrValidation)
	}
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Tenant context is required").
			Mark(ierr.ErrValidation)
	}

	sub, err := s.SubRepo.GetByTenant(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}

	result, err := s.prorate(ctx, sub, req.PlanID, now)
	if err != nil {
		return nil, err
	}

	return &dto.ProrationPreviewResponse{
		UnusedValue:     result.UnusedValue,
		NewPlanProrated: result.NewPlanProrated,
		CorrectCharge:   result.CorrectCharge,
		RemainingDays:   result.RemainingDays,
		TotalDays:       result.TotalDays,
		Currency:        sub.Currency,
	}, nil
}

func (s *upgradeService) InitiateUpgrade(ctx context.Context, req dto.UpgradeRequest, now time.Time) (*dto.UpgradeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Tenant context is required").
			Mark(ierr.ErrValidation)
	}

	newPlan, err := s.PlanRepo.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.GetByTenant(ctx, types.GetTenantID(ctx))
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	amount := newPlan.Price
	reason := types.TransactionReason{
		Type:            types.ReasonNewSubscription,
		NewSubscription: &types.NewSubscriptionReason{PlanID: newPlan.ID},
	}

	if sub != nil {
		switch req.UpgradeOption {
		case types.UpgradeOptionImmediate:
			result, err := s.prorate(ctx, sub, newPlan.ID, now)
			if err != nil {
				return nil, err
			}
			amount = result.CorrectCharge
			if amount.Sign() < 0 {
				// Downgrade mid-cycle would owe the tenant money; there is
				// no compensation policy for that, so the checkout charges
				// nothing and the surplus is forfeited.
				s.Logger.Warnw("negative prorated charge clamped to zero",
					"tenant_id", sub.TenantID,
					"correct_charge", result.CorrectCharge)
				amount = decimal.Zero
			}
			reason = types.TransactionReason{
				Type: types.ReasonImmediateUpgrade,
				ImmediateUpgrade: &types.ImmediateUpgradeReason{
					FromPlanID:      sub.PlanID,
					ToPlanID:        newPlan.ID,
					UnusedValue:     result.UnusedValue,
					NewPlanProrated: result.NewPlanProrated,
					CorrectCharge:   result.CorrectCharge,
					RemainingDays:   result.RemainingDays,
					TotalDays:       result.TotalDays,
				},
			}
		case types.UpgradeOptionEndOfPeriod:
			reason = types.TransactionReason{
				Type: types.ReasonScheduledUpgrade,
				ScheduledUpgrade: &types.ScheduledUpgradeReason{
					FromPlanID: sub.PlanID,
					ToPlanID:   newPlan.ID,
					ActivateAt: sub.CurrentPeriodEnd,
				},
			}
		}
	}

	txn := &transaction.Transaction{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRANSACTION),
		OrderID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ORDER),
		PlanID:            newPlan.ID,
		Amount:            amount,
		Currency:          newPlan.Currency,
		TransactionStatus: types.TransactionStatusPending,
		UpgradeOption:     req.UpgradeOption,
		BillingCycle:      now.Format("2006-01"),
		Reason:            reason,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}

	if err := s.TransactionRepo.Create(ctx, txn); err != nil {
		return nil, err
	}

	s.Logger.Infow("initiated plan change checkout",
		"transaction_id", txn.ID,
		"order_id", txn.OrderID,
		"plan_id", txn.PlanID,
		"upgrade_option", txn.UpgradeOption,
		"amount", txn.Amount)

	return &dto.UpgradeResponse{
		TransactionID: txn.ID,
		OrderID:       txn.OrderID,
		PlanID:        txn.PlanID,
		UpgradeOption: txn.UpgradeOption,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Status:        txn.TransactionStatus,
	}, nil
}

func (s *upgradeService) ProcessPaidOrder(ctx context.Context, orderID, gatewayTransactionID string, chargedAmount decimal.Decimal, now time.Time) (bool, error) {
	duplicate := false

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		txn, err := s.TransactionRepo.GetByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		// Idempotency: the gateway delivers at least once. A transaction
		// already settled must not mutate billing state again.
		if txn.IsTerminal() {
			s.Logger.Infow("order already settled, skipping",
				"order_id", orderID,
				"transaction_id", txn.ID,
				"status", txn.TransactionStatus)
			duplicate = true
			return nil
		}
		if txn.TransactionStatus != types.TransactionStatusPending {
			return ierr.NewError("transaction is not payable").
				WithHintf("Transaction %s is in state %s", txn.ID, txn.TransactionStatus).
				WithReportableDetails(map[string]any{
					"transaction_id": txn.ID,
					"status":         txn.TransactionStatus,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		// Webhook requests carry no tenant; adopt the transaction's tenant
		ctx = types.SetTenantID(ctx, txn.TenantID)

		if gatewayTransactionID != "" {
			if err := s.TransactionRepo.SetGatewayTransactionID(ctx, txn.ID, gatewayTransactionID); err != nil {
				return err
			}
		}

		charged := chargedAmount
		if charged.IsZero() {
			charged = txn.Amount
		}

		sub, err := s.SubRepo.GetByTenant(ctx, txn.TenantID)
		if err != nil {
			if ierr.IsNotFound(err) {
				return s.settleNewSubscription(ctx, txn, now)
			}
			return err
		}

		switch txn.UpgradeOption {
		case types.UpgradeOptionEndOfPeriod:
			return s.settleDeferred(ctx, txn, sub)
		default:
			return s.settleImmediate(ctx, txn, sub, charged, now)
		}
	})
	if err != nil {
		return false, err
	}
	return duplicate, nil
}

// settleNewSubscription handles a brand-new tenant's first purchase. There is
// no current plan to prorate against; the subscription starts now.
func (s *upgradeService) settleNewSubscription(ctx context.Context, txn *transaction.Transaction, now time.Time) error {
	if _, err := s.subscriptionSvc.CreateSubscription(ctx, txn.PlanID, now); err != nil {
		return err
	}
	reason := types.TransactionReason{
		Type:            types.ReasonNewSubscription,
		NewSubscription: &types.NewSubscriptionReason{PlanID: txn.PlanID},
	}
	return s.TransactionRepo.UpdateStatus(ctx, txn.ID, types.TransactionStatusPaid, &reason)
}

func (s *upgradeService) settleImmediate(ctx context.Context, txn *transaction.Transaction, sub *subscription.Subscription, charged decimal.Decimal, now time.Time) error {
	result, err := s.prorate(ctx, sub, txn.PlanID, now)
	if err != nil {
		return err
	}

	fromPlanID := sub.PlanID
	if _, err := s.subscriptionSvc.ActivateImmediate(ctx, sub.ID, txn.PlanID, now); err != nil {
		return err
	}

	reason := types.TransactionReason{
		Type: types.ReasonImmediateUpgrade,
		ImmediateUpgrade: &types.ImmediateUpgradeReason{
			FromPlanID:      fromPlanID,
			ToPlanID:        txn.PlanID,
			UnusedValue:     result.UnusedValue,
			NewPlanProrated: result.NewPlanProrated,
			CorrectCharge:   result.CorrectCharge,
			RemainingDays:   result.RemainingDays,
			TotalDays:       result.TotalDays,
		},
	}
	if err := s.TransactionRepo.UpdateStatus(ctx, txn.ID, types.TransactionStatusPaid, &reason); err != nil {
		return err
	}

	diff := charged.Sub(result.CorrectCharge)
	if diff.Abs().GreaterThan(s.Config.Billing.Threshold()) {
		if diff.Sign() > 0 {
			if _, err := s.compensationSvc.CompensateOvercharge(ctx, txn, charged, result.CorrectCharge); err != nil {
				return err
			}
		} else {
			// Undercharge has no compensation policy; surface it in the logs
			// so finance can follow up.
			s.Logger.Warnw("undercharge detected, no compensation issued",
				"transaction_id", txn.ID,
				"charged", charged,
				"correct_charge", result.CorrectCharge)
		}
	}
	return nil
}

func (s *upgradeService) settleDeferred(ctx context.Context, txn *transaction.Transaction, sub *subscription.Subscription) error {
	updated, err := s.subscriptionSvc.ScheduleDeferred(ctx, sub.ID, txn.PlanID)
	if err != nil {
		return err
	}

	reason := types.TransactionReason{
		Type: types.ReasonScheduledUpgrade,
		ScheduledUpgrade: &types.ScheduledUpgradeReason{
			FromPlanID: sub.PlanID,
			ToPlanID:   txn.PlanID,
			ActivateAt: updated.CurrentPeriodEnd,
		},
	}
	return s.TransactionRepo.UpdateStatus(ctx, txn.ID, types.TransactionStatusScheduled, &reason)
}

func (s *upgradeService) MarkOrderFailed(ctx context.Context, orderID string) error {
	txn, err := s.TransactionRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if txn.TransactionStatus != types.TransactionStatusPending {
		return nil
	}
	s.Logger.Warnw("gateway reported failed charge",
		"order_id", orderID,
		"transaction_id", txn.ID)
	return s.TransactionRepo.UpdateStatus(ctx, txn.ID, types.TransactionStatusFailed, nil)
}

// prorate runs the pure calculator for changing the subscription to the new
// plan at the given instant.
func (s *upgradeService) prorate(ctx context.Context, sub *subscription.Subscription, newPlanID string, now time.Time) (*proration.Result, error) {
	currentPlan, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	newPlan, err := s.PlanRepo.Get(ctx, newPlanID)
	if err != nil {
		return nil, err
	}

	return s.calculator.Calculate(ctx, proration.Params{
		CurrentPlan:        currentPlan,
		NewPlan:            newPlan,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		Now:                now,
	})
}
