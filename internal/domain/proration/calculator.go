package proration

import (
	"context"
	"fmt"
	"time"

	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/shopspring/decimal"
)

// Calculator computes the monetary delta for a mid-cycle plan change.
// Implementations are pure: no side effects, no I/O.
type Calculator interface {
	Calculate(ctx context.Context, params Params) (*Result, error)
}

// NewCalculator creates the day-based proration calculator.
func NewCalculator() Calculator {
	return &dayBasedCalculator{}
}

// dayBasedCalculator prorates on whole remaining days, counting partial days
// as full days (ceil). Daily rates stay unrounded until the final output.
type dayBasedCalculator struct{}

func (c *dayBasedCalculator) Calculate(ctx context.Context, params Params) (*Result, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	totalDays := ceilDays(params.CurrentPeriodEnd.Sub(params.CurrentPeriodStart))
	remainingDays := ceilDays(params.CurrentPeriodEnd.Sub(params.Now))

	decimalTotalDays := decimal.NewFromInt(int64(totalDays))
	decimalRemainingDays := decimal.NewFromInt(int64(remainingDays))

	// Real-valued daily rates; rounding mid-calculation would compound error
	// across the remaining-day multiplication.
	currentDailyRate := params.CurrentPlan.Price.Div(decimalTotalDays)
	newDailyRate := params.NewPlan.Price.Div(decimalTotalDays)

	unusedValue := currentDailyRate.Mul(decimalRemainingDays)
	newPlanProrated := newDailyRate.Mul(decimalRemainingDays)
	correctCharge := newPlanProrated.Sub(unusedValue)

	// Round to the minor unit only at the output boundary
	return &Result{
		UnusedValue:     unusedValue.Round(0),
		NewPlanProrated: newPlanProrated.Round(0),
		CorrectCharge:   correctCharge.Round(0),
		RemainingDays:   remainingDays,
		TotalDays:       totalDays,
	}, nil
}

// ceilDays counts calendar-agnostic 24h days in a duration, rounding any
// partial day up.
func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

func validateParams(params Params) error {
	if params.CurrentPlan == nil || params.NewPlan == nil {
		return ierr.NewError("current and new plans are required").
			WithHint("Both the current and the new plan must be provided").
			Mark(ierr.ErrValidation)
	}
	if params.CurrentPeriodStart.IsZero() || params.CurrentPeriodEnd.IsZero() {
		return ierr.NewError("billing period start and end dates are required").
			WithHint("Billing period bounds must be provided").
			Mark(ierr.ErrInvalidTimeRange)
	}
	if !params.CurrentPeriodEnd.After(params.CurrentPeriodStart) {
		return ierr.NewError("billing period end must be after start").
			WithHintf("invalid billing period (%v to %v)", params.CurrentPeriodStart, params.CurrentPeriodEnd).
			Mark(ierr.ErrInvalidTimeRange)
	}
	if params.Now.Before(params.CurrentPeriodStart) || params.Now.After(params.CurrentPeriodEnd) {
		return ierr.WithError(fmt.Errorf("proration instant %v outside period [%v, %v]",
			params.Now, params.CurrentPeriodStart, params.CurrentPeriodEnd)).
			WithHint("The change must fall inside the current billing period").
			Mark(ierr.ErrInvalidTimeRange)
	}
	return nil
}
