package subscription

import (
	"time"

	"github.com/brewstack/brewstack/internal/types"
)

// Subscription is a tenant's subscription record. Tenant to subscription is
// 1:1; the row is never hard-deleted, only transitioned to cancelled/expired.
type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// PlanID is the plan currently in effect
	PlanID string `db:"plan_id" json:"plan_id"`

	// IntendedPlanID is set only while a deferred (end-of-period) plan change
	// is outstanding, and is cleared atomically with the plan switch.
	IntendedPlanID *string `db:"intended_plan_id" json:"intended_plan_id"`

	// SubscriptionStatus is the status of the subscription
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// Currency is the currency of the subscription in lowercase 3 digit ISO codes
	Currency string `db:"currency" json:"currency"`

	// CurrentPeriodStart is the start of the current billing period.
	// The period is the half-open interval [CurrentPeriodStart, CurrentPeriodEnd).
	CurrentPeriodStart time.Time `db:"current_period_start" json:"current_period_start"`

	// CurrentPeriodEnd is the end of the current billing period
	CurrentPeriodEnd time.Time `db:"current_period_end" json:"current_period_end"`

	// CancelledAt is the date the subscription was cancelled
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at"`

	// BillingInterval is the cadence of the billing cycle
	BillingInterval types.BillingInterval `db:"billing_interval" json:"billing_interval"`

	// Version is the optimistic concurrency token. Every mutation increments
	// it; writers that lose the race get a version conflict and retry.
	Version int `db:"version" json:"version"`

	types.BaseModel
}

// TableName overrides the gorm table name
func (s *Subscription) TableName() string {
	return "subscriptions"
}

// HasScheduledChange reports whether a deferred plan change is outstanding.
func (s *Subscription) HasScheduledChange() bool {
	return s.IntendedPlanID != nil && *s.IntendedPlanID != ""
}

// IsDue reports whether the current billing period has elapsed at the given
// instant. Period end is exclusive, so exactly at period end counts as due.
func (s *Subscription) IsDue(now time.Time) bool {
	return !now.Before(s.CurrentPeriodEnd)
}
