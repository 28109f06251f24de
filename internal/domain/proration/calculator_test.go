package proration

import (
	"context"
	"testing"
	"time"

	"github.com/brewstack/brewstack/internal/domain/plan"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan(id string, price int64) *plan.Plan {
	return &plan.Plan{
		ID:              id,
		Name:            id,
		Price:           decimal.NewFromInt(price),
		Currency:        "usd",
		BillingInterval: types.BillingIntervalMonthly,
	}
}

func TestCalculator_Calculate(t *testing.T) {
	periodStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 0, 30)

	tests := []struct {
		name     string
		params   Params
		expected *Result
		wantErr  func(error) bool
	}{
		{
			// 30-day period, 23 full days remaining, 160000 -> 235000.
			// unused = 160000 * 23/30 = 122666.67, prorated = 235000 * 23/30
			// = 180166.67, charge = 75000 * 23/30 = 57500 exactly.
			name: "mid_cycle_upgrade",
			params: Params{
				CurrentPlan:        testPlan("plan_starter", 160000),
				NewPlan:            testPlan("plan_pro", 235000),
				CurrentPeriodStart: periodStart,
				CurrentPeriodEnd:   periodEnd,
				Now:                periodEnd.AddDate(0, 0, -23),
			},
			expected: &Result{
				UnusedValue:     decimal.NewFromInt(122667),
				NewPlanProrated: decimal.NewFromInt(180167),
				CorrectCharge:   decimal.NewFromInt(57500),
				RemainingDays:   23,
				TotalDays:       30,
			},
		},
		{
			// A partial day counts as a whole remaining day
			name: "partial_day_rounds_up",
			params: Params{
				CurrentPlan:        testPlan("plan_starter", 160000),
				NewPlan:            testPlan("plan_pro", 235000),
				CurrentPeriodStart: periodStart,
				CurrentPeriodEnd:   periodEnd,
				Now:                periodEnd.AddDate(0, 0, -23).Add(-time.Hour),
			},
			expected: &Result{
				UnusedValue:     decimal.NewFromInt(128000),
				NewPlanProrated: decimal.NewFromInt(188000),
				CorrectCharge:   decimal.NewFromInt(60000),
				RemainingDays:   24,
				TotalDays:       30,
			},
		},
		{
			name: "change_at_period_end_charges_nothing",
			params: Params{
				CurrentPlan:        testPlan("plan_starter", 160000),
				NewPlan:            testPlan("plan_pro", 235000),
				CurrentPeriodStart: periodStart,
				CurrentPeriodEnd:   periodEnd,
				Now:                periodEnd,
			},
			expected: &Result{
				UnusedValue:     decimal.Zero,
				NewPlanProrated: decimal.Zero,
				CorrectCharge:   decimal.Zero,
				RemainingDays:   0,
				TotalDays:       30,
			},
		},
		{
			name: "change_at_period_start_charges_full_difference",
			params: Params{
				CurrentPlan:        testPlan("plan_starter", 160000),
				NewPlan:            testPlan("plan_pro", 235000),
				CurrentPeriodStart: periodStart,
				CurrentPeriodEnd:   periodEnd,
				Now:                periodStart,
			},
			expected: &Result{
				UnusedValue:     decimal.NewFromInt(160000),
				NewPlanProrated: decimal.NewFromInt(235000),
				CorrectCharge:   decimal.NewFromInt(75000),
				RemainingDays:   30,
				TotalDays:       30,
			},
		},
		{
			// Downgrades produce a negative charge; the calculator reports
			// it, policy upstream decides what to do with it
			name: "downgrade_negative_charge",
			params: Params{
				CurrentPlan:        testPlan("plan_pro", 235000),
				NewPlan:            testPlan("plan_starter", 160000),
				CurrentPeriodStart: periodStart,
				CurrentPeriodEnd:   periodEnd,
				Now:                periodEnd.AddDate(0, 0, -23),
			},
			expected: &Result{
				UnusedValue:     decimal.NewFromInt(180167),
				NewPlanProrated: decimal.NewFromInt(122667),
				CorrectCharge:   decimal.NewFromInt(-57500),
				RemainingDays:   23,
				TotalDays:       30,
			},
		},
		{
			name: "free_to_paid",
			params: Params{
				CurrentPlan:        testPlan("plan_free", 0),
				NewPlan:            testPlan("plan_starter", 160000),
				CurrentPeriodStart: periodStart,
				CurrentPeriodEnd:   periodEnd,
				Now:                periodEnd.AddDate(0, 0, -15),
			},
			expected: &Result{
				UnusedValue:     decimal.Zero,
				NewPlanProrated: decimal.NewFromInt(80000),
				CorrectCharge:   decimal.NewFromInt(80000),
				RemainingDays:   15,
				TotalDays:       30,
			},
		},
		{
			name: "now_before_period_start",
			params: Params{
				CurrentPlan:        testPlan("plan_starter", 160000),
				NewPlan:            testPlan("plan_pro", 235000),
				CurrentPeriodStart: periodStart,
				CurrentPeriodEnd:   periodEnd,
				Now:                periodStart.Add(-time.Second),
			},
			wantErr: ierr.IsInvalidTimeRange,
		},
		{
			name: "now_after_period_end",
			params: Params{
				CurrentPlan:        testPlan("plan_starter", 160000),
				NewPlan:            testPlan("plan_pro", 235000),
				CurrentPeriodStart: periodStart,
				CurrentPeriodEnd:   periodEnd,
				Now:                periodEnd.Add(time.Second),
			},
			wantErr: ierr.IsInvalidTimeRange,
		},
		{
			name: "period_end_before_start",
			params: Params{
				CurrentPlan:        testPlan("plan_starter", 160000),
				NewPlan:            testPlan("plan_pro", 235000),
				CurrentPeriodStart: periodEnd,
				CurrentPeriodEnd:   periodStart,
				Now:                periodStart,
			},
			wantErr: ierr.IsInvalidTimeRange,
		},
		{
			name: "zero_length_period",
			params: Params{
				CurrentPlan:        testPlan("plan_starter", 160000),
				NewPlan:            testPlan("plan_pro", 235000),
				CurrentPeriodStart: periodStart,
				CurrentPeriodEnd:   periodStart,
				Now:                periodStart,
			},
			wantErr: ierr.IsInvalidTimeRange,
		},
		{
			name: "missing_plans",
			params: Params{
				CurrentPeriodStart: periodStart,
				CurrentPeriodEnd:   periodEnd,
				Now:                periodStart,
			},
			wantErr: ierr.IsValidation,
		},
	}

	calc := NewCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := calc.Calculate(context.Background(), tt.params)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error kind: %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.UnusedValue.Equal(result.UnusedValue),
				"unused value: want %s got %s", tt.expected.UnusedValue, result.UnusedValue)
			assert.True(t, tt.expected.NewPlanProrated.Equal(result.NewPlanProrated),
				"new plan prorated: want %s got %s", tt.expected.NewPlanProrated, result.NewPlanProrated)
			assert.True(t, tt.expected.CorrectCharge.Equal(result.CorrectCharge),
				"correct charge: want %s got %s", tt.expected.CorrectCharge, result.CorrectCharge)
			assert.Equal(t, tt.expected.RemainingDays, result.RemainingDays)
			assert.Equal(t, tt.expected.TotalDays, result.TotalDays)
		})
	}
}

func TestCalculator_ChargeNeverExceedsPlanDifference(t *testing.T) {
	periodStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 0, 30)
	calc := NewCalculator()

	fullDifference := decimal.NewFromInt(75000)
	for day := 0; day <= 30; day++ {
		result, err := calc.Calculate(context.Background(), Params{
			CurrentPlan:        testPlan("plan_starter", 160000),
			NewPlan:            testPlan("plan_pro", 235000),
			CurrentPeriodStart: periodStart,
			CurrentPeriodEnd:   periodEnd,
			Now:                periodStart.AddDate(0, 0, day),
		})
		require.NoError(t, err)
		assert.True(t, result.CorrectCharge.LessThanOrEqual(fullDifference),
			"day %d: charge %s exceeds full plan difference", day, result.CorrectCharge)
		assert.True(t, result.CorrectCharge.GreaterThanOrEqual(decimal.Zero),
			"day %d: upgrade charge went negative: %s", day, result.CorrectCharge)
	}
}
