package types

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the status of a payment transaction
type TransactionStatus string

const (
	TransactionStatusPending       TransactionStatus = "PENDING"
	TransactionStatusPaid          TransactionStatus = "PAID"
	TransactionStatusScheduled     TransactionStatus = "SCHEDULED"
	TransactionStatusRefundPending TransactionStatus = "REFUND_PENDING"
	TransactionStatusFailed        TransactionStatus = "FAILED"
)

func (s TransactionStatus) String() string {
	return string(s)
}

func (s TransactionStatus) Validate() error {
	allowed := []TransactionStatus{
		TransactionStatusPending,
		TransactionStatusPaid,
		TransactionStatusScheduled,
		TransactionStatusRefundPending,
		TransactionStatusFailed,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid transaction status").
			WithHint("Invalid transaction status").
			WithReportableDetails(map[string]any{
				"status":  s,
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal reports whether the transaction has reached a state where a
// redelivered payment event must not mutate billing state again.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusPaid || s == TransactionStatusScheduled
}

// TransactionReasonType discriminates the typed reason attached to a
// transaction row.
type TransactionReasonType string

const (
	ReasonNewSubscription  TransactionReasonType = "new_subscription"
	ReasonImmediateUpgrade TransactionReasonType = "immediate_upgrade"
	ReasonScheduledUpgrade TransactionReasonType = "scheduled_upgrade"
	ReasonOverchargeRefund TransactionReasonType = "overcharge_refund"
)

// TransactionReason is a tagged union recording why a transaction exists and
// the calculation inputs behind its amount. Exactly one variant field is set,
// matching Type. Stored as JSONB.
type TransactionReason struct {
	Type TransactionReasonType `json:"type"`

	NewSubscription  *NewSubscriptionReason  `json:"new_subscription,omitempty"`
	ImmediateUpgrade *ImmediateUpgradeReason `json:"immediate_upgrade,omitempty"`
	ScheduledUpgrade *ScheduledUpgradeReason `json:"scheduled_upgrade,omitempty"`
	OverchargeRefund *OverchargeRefundReason `json:"overcharge_refund,omitempty"`
}

// NewSubscriptionReason covers a brand-new tenant purchasing their first plan.
type NewSubscriptionReason struct {
	PlanID string `json:"plan_id"`
}

// ImmediateUpgradeReason captures the proration inputs behind a mid-cycle
// plan change applied immediately.
type ImmediateUpgradeReason struct {
	FromPlanID      string          `json:"from_plan_id"`
	ToPlanID        string          `json:"to_plan_id"`
	UnusedValue     decimal.Decimal `json:"unused_value"`
	NewPlanProrated decimal.Decimal `json:"new_plan_prorated"`
	CorrectCharge   decimal.Decimal `json:"correct_charge"`
	RemainingDays   int             `json:"remaining_days"`
	TotalDays       int             `json:"total_days"`
}

// ScheduledUpgradeReason captures a deferred plan change and when it is
// expected to activate.
type ScheduledUpgradeReason struct {
	FromPlanID string    `json:"from_plan_id"`
	ToPlanID   string    `json:"to_plan_id"`
	ActivateAt time.Time `json:"activate_at"`
}

// OverchargeRefundReason cross-references the charge being compensated.
type OverchargeRefundReason struct {
	OriginalTransactionID string          `json:"original_transaction_id"`
	ChargedAmount         decimal.Decimal `json:"charged_amount"`
	CorrectCharge         decimal.Decimal `json:"correct_charge"`
}

func (r *TransactionReason) Validate() error {
	if r == nil {
		return nil
	}
	variants := map[TransactionReasonType]bool{
		ReasonNewSubscription:  r.NewSubscription != nil,
		ReasonImmediateUpgrade: r.ImmediateUpgrade != nil,
		ReasonScheduledUpgrade: r.ScheduledUpgrade != nil,
		ReasonOverchargeRefund: r.OverchargeRefund != nil,
	}
	set, ok := variants[r.Type]
	if !ok {
		return ierr.NewError("invalid transaction reason type").
			WithHint("Invalid transaction reason type").
			WithReportableDetails(map[string]any{"type": r.Type}).
			Mark(ierr.ErrValidation)
	}
	if !set {
		return ierr.NewError("transaction reason variant does not match type").
			WithHint("Transaction reason payload is missing").
			WithReportableDetails(map[string]any{"type": r.Type}).
			Mark(ierr.ErrValidation)
	}
	for t, present := range variants {
		if present && t != r.Type {
			return ierr.NewError("multiple transaction reason variants set").
				WithHint("Exactly one transaction reason variant may be set").
				WithReportableDetails(map[string]any{"type": r.Type, "extra": t}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// Scan implements the sql.Scanner interface for TransactionReason
func (r *TransactionReason) Scan(value interface{}) error {
	if value == nil {
		*r = TransactionReason{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ierr.NewError("failed to unmarshal JSONB value").
			Mark(ierr.ErrDatabase)
	}

	return json.Unmarshal(bytes, r)
}

// Value implements the driver.Valuer interface for TransactionReason
func (r TransactionReason) Value() (driver.Value, error) {
	return json.Marshal(r)
}
