package proration

import (
	"time"

	"github.com/brewstack/brewstack/internal/domain/plan"
	"github.com/shopspring/decimal"
)

// Params holds all necessary input for calculating a mid-cycle plan change.
type Params struct {
	// CurrentPlan is the plan in effect for the running period
	CurrentPlan *plan.Plan

	// NewPlan is the plan being switched to
	NewPlan *plan.Plan

	// CurrentPeriodStart / CurrentPeriodEnd bound the running billing period
	// as the half-open interval [start, end)
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time

	// Now is the effective instant of the change. Must satisfy
	// CurrentPeriodStart <= Now <= CurrentPeriodEnd.
	Now time.Time
}

// Result holds the output of a proration calculation. Monetary values are
// rounded to the currency's minor unit at this boundary and nowhere earlier.
type Result struct {
	// UnusedValue is the value of the remaining days already paid for on the
	// current plan
	UnusedValue decimal.Decimal `json:"unused_value"`

	// NewPlanProrated is the cost of the remaining days on the new plan
	NewPlanProrated decimal.Decimal `json:"new_plan_prorated"`

	// CorrectCharge is NewPlanProrated - UnusedValue. Negative means the
	// tenant is owed value on a downgrade.
	CorrectCharge decimal.Decimal `json:"correct_charge"`

	RemainingDays int `json:"remaining_days"`
	TotalDays     int `json:"total_days"`
}
