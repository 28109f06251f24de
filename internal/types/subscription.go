package types

import (
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the status of a tenant's subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive          SubscriptionStatus = "active"
	SubscriptionStatusPendingCheckout SubscriptionStatus = "pending_checkout"
	SubscriptionStatusCancelled       SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired         SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusPendingCheckout,
		SubscriptionStatusCancelled,
		SubscriptionStatusExpired,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"status":  s,
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// UpgradeOption determines when a purchased plan change takes effect.
type UpgradeOption string

const (
	// UpgradeOptionImmediate applies the plan change now and resets the
	// billing period, charging the prorated difference.
	UpgradeOptionImmediate UpgradeOption = "immediate"
	// UpgradeOptionEndOfPeriod defers the plan change to the current period
	// boundary. No mid-cycle charge.
	UpgradeOptionEndOfPeriod UpgradeOption = "end_of_period"
)

func (o UpgradeOption) String() string {
	return string(o)
}

func (o UpgradeOption) Validate() error {
	allowed := []UpgradeOption{
		UpgradeOptionImmediate,
		UpgradeOptionEndOfPeriod,
	}
	if !lo.Contains(allowed, o) {
		return ierr.NewError("invalid upgrade option").
			WithHint("Upgrade option must be either immediate or end_of_period").
			WithReportableDetails(map[string]any{
				"upgrade_option": o,
				"allowed":        allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
