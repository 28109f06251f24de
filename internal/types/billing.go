package types

import (
	"time"

	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/samber/lo"
)

// BillingInterval is the cadence at which a plan renews.
type BillingInterval string

const (
	BillingIntervalMonthly BillingInterval = "MONTHLY"
	BillingIntervalYearly  BillingInterval = "YEARLY"
)

func (i BillingInterval) String() string {
	return string(i)
}

func (i BillingInterval) Validate() error {
	allowed := []BillingInterval{
		BillingIntervalMonthly,
		BillingIntervalYearly,
	}
	if !lo.Contains(allowed, i) {
		return ierr.NewError("invalid billing interval").
			WithHint("Invalid billing interval").
			WithReportableDetails(map[string]any{
				"interval": i,
				"allowed":  allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// NextPeriodEnd returns the end of a billing period that starts at the given
// time. Calendar aware: Jan 31 + 1 month normalizes per time.AddDate.
func (i BillingInterval) NextPeriodEnd(start time.Time) time.Time {
	switch i {
	case BillingIntervalYearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}
