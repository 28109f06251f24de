package dto

import (
	"time"

	"github.com/brewstack/brewstack/internal/domain/subscription"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/types"
	"github.com/shopspring/decimal"
)

// SubscriptionResponse is the read model for a tenant's subscription
type SubscriptionResponse struct {
	ID                 string                   `json:"id"`
	PlanID             string                   `json:"plan_id"`
	IntendedPlanID     *string                  `json:"intended_plan_id,omitempty"`
	SubscriptionStatus types.SubscriptionStatus `json:"subscription_status"`
	Currency           string                   `json:"currency"`
	CurrentPeriodStart time.Time                `json:"current_period_start"`
	CurrentPeriodEnd   time.Time                `json:"current_period_end"`
	CancelledAt        *time.Time               `json:"cancelled_at,omitempty"`
	BillingInterval    types.BillingInterval    `json:"billing_interval"`
}

// NewSubscriptionResponse converts a domain subscription to its response shape
func NewSubscriptionResponse(s *subscription.Subscription) *SubscriptionResponse {
	if s == nil {
		return nil
	}
	return &SubscriptionResponse{
		ID:                 s.ID,
		PlanID:             s.PlanID,
		IntendedPlanID:     s.IntendedPlanID,
		SubscriptionStatus: s.SubscriptionStatus,
		Currency:           s.Currency,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CancelledAt:        s.CancelledAt,
		BillingInterval:    s.BillingInterval,
	}
}

// UpgradeRequest initiates a plan change purchase
type UpgradeRequest struct {
	PlanID        string              `json:"plan_id" binding:"required"`
	UpgradeOption types.UpgradeOption `json:"upgrade_option" binding:"required"`
}

func (r *UpgradeRequest) Validate() error {
	if r.PlanID == "" {
		return ierr.NewError("plan_id is required").
			WithHint("Please select a plan").
			Mark(ierr.ErrValidation)
	}
	if err := r.UpgradeOption.Validate(); err != nil {
		return err
	}
	return nil
}

// UpgradeResponse describes the pending transaction created for a plan change
type UpgradeResponse struct {
	TransactionID string                  `json:"transaction_id"`
	OrderID       string                  `json:"order_id"`
	PlanID        string                  `json:"plan_id"`
	UpgradeOption types.UpgradeOption     `json:"upgrade_option"`
	Amount        decimal.Decimal         `json:"amount"`
	Currency      string                  `json:"currency"`
	Status        types.TransactionStatus `json:"status"`
}

// CompleteUpgradeRequest settles a pending upgrade synchronously after
// checkout completion
type CompleteUpgradeRequest struct {
	OrderID              string          `json:"order_id" binding:"required"`
	GatewayTransactionID string          `json:"gateway_transaction_id"`
	ChargedAmount        decimal.Decimal `json:"charged_amount"`
}

func (r *CompleteUpgradeRequest) Validate() error {
	if r.OrderID == "" {
		return ierr.NewError("order_id is required").
			WithHint("Order id of the checkout is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PreviewUpgradeRequest asks for the proration quote of an immediate change
type PreviewUpgradeRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

// ProrationPreviewResponse is the proration breakdown for a prospective
// immediate plan change. Nothing is mutated to produce it.
type ProrationPreviewResponse struct {
	UnusedValue     decimal.Decimal `json:"unused_value"`
	NewPlanProrated decimal.Decimal `json:"new_plan_prorated"`
	CorrectCharge   decimal.Decimal `json:"correct_charge"`
	RemainingDays   int             `json:"remaining_days"`
	TotalDays       int             `json:"total_days"`
	Currency        string          `json:"currency"`
}
