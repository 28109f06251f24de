package service

import (
	"context"

	"github.com/brewstack/brewstack/internal/domain/activity"
	"github.com/brewstack/brewstack/internal/domain/credit"
	"github.com/brewstack/brewstack/internal/domain/transaction"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/types"
	"github.com/shopspring/decimal"
)

// CompensationService records account credits for detected overcharges.
// Consumption of credits by future billing cycles is outside this core.
type CompensationService interface {
	// CompensateOvercharge grants the tenant a credit for the overcharged
	// amount and writes a negative REFUND_PENDING audit transaction
	// cross-referencing the original charge.
	CompensateOvercharge(ctx context.Context, original *transaction.Transaction, chargedAmount, correctCharge decimal.Decimal) (*credit.AccountCredit, error)
}

type compensationService struct {
	ServiceParams
}

// NewCompensationService creates a new instance of CompensationService
func NewCompensationService(params ServiceParams) CompensationService {
	return &compensationService{ServiceParams: params}
}

func (s *compensationService) CompensateOvercharge(ctx context.Context, original *transaction.Transaction, chargedAmount, correctCharge decimal.Decimal) (*credit.AccountCredit, error) {
	overcharge := chargedAmount.Sub(correctCharge)
	if overcharge.Sign() <= 0 {
		return nil, ierr.NewError("compensation amount must be positive").
			WithHint("Only overcharges are compensated").
			WithReportableDetails(map[string]any{
				"charged_amount": chargedAmount,
				"correct_charge": correctCharge,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	var created *credit.AccountCredit
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		// No OrderID: refund rows are not gateway orders, and sharing the
		// original's order id would make order lookups ambiguous on webhook
		// redelivery. RefTransactionID carries the link instead.
		refundTxn := &transaction.Transaction{
			ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRANSACTION),
			PlanID:            original.PlanID,
			Amount:            overcharge.Neg(),
			Currency:          original.Currency,
			TransactionStatus: types.TransactionStatusRefundPending,
			BillingCycle:      original.BillingCycle,
			RefTransactionID:  &original.ID,
			Reason: types.TransactionReason{
				Type: types.ReasonOverchargeRefund,
				OverchargeRefund: &types.OverchargeRefundReason{
					OriginalTransactionID: original.ID,
					ChargedAmount:         chargedAmount,
					CorrectCharge:         correctCharge,
				},
			},
			BaseModel: types.GetDefaultBaseModel(ctx),
		}
		refundTxn.TenantID = original.TenantID
		if err := s.TransactionRepo.Create(ctx, refundTxn); err != nil {
			return err
		}

		c := &credit.AccountCredit{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CREDIT),
			Reference:     types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_CREDIT),
			Amount:        overcharge,
			Currency:      original.Currency,
			Reason:        types.CreditReasonOverchargeCompensation,
			CreditStatus:  types.CreditStatusActive,
			TransactionID: refundTxn.ID,
			BaseModel:     types.GetDefaultBaseModel(ctx),
		}
		c.TenantID = original.TenantID
		if err := s.CreditRepo.Create(ctx, c); err != nil {
			return err
		}

		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("granted overcharge compensation",
		"credit_id", created.ID,
		"tenant_id", created.TenantID,
		"amount", created.Amount,
		"original_transaction_id", original.ID)
	s.Activity.Record(ctx, created.TenantID, activity.EventCreditGranted, map[string]any{
		"credit_id":               created.ID,
		"amount":                  created.Amount,
		"original_transaction_id": original.ID,
	})
	return created, nil
}
