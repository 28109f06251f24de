package service

import (
	"testing"
	"time"

	"github.com/brewstack/brewstack/internal/api/dto"
	"github.com/brewstack/brewstack/internal/domain/plan"
	"github.com/brewstack/brewstack/internal/domain/subscription"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/testutil"
	"github.com/brewstack/brewstack/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type UpgradeServiceSuite struct {
	testutil.BaseServiceTestSuite
	service         UpgradeService
	subscriptionSvc SubscriptionService
	testData        struct {
		starterPlan *plan.Plan
		proPlan     *plan.Plan
		periodStart time.Time
		sub         *subscription.Subscription
	}
}

func TestUpgradeService(t *testing.T) {
	suite.Run(t, new(UpgradeServiceSuite))
}

func (s *UpgradeServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	params := ServiceParams{
		Logger:          s.GetLogger(),
		Config:          s.GetConfig(),
		DB:              s.GetDB(),
		PlanRepo:        s.GetStores().PlanRepo,
		SubRepo:         s.GetStores().SubscriptionRepo,
		TransactionRepo: s.GetStores().TransactionRepo,
		CreditRepo:      s.GetStores().CreditRepo,
		Activity:        s.GetActivityRecorder(),
	}
	s.subscriptionSvc = NewSubscriptionService(params)
	s.service = NewUpgradeService(params, s.subscriptionSvc, NewCompensationService(params))

	s.setupTestData()
}

func (s *UpgradeServiceSuite) setupTestData() {
	// A 30-day period so Scenario A style numbers come out exact
	s.testData.periodStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	s.testData.starterPlan = &plan.Plan{
		ID:              "plan_starter",
		Name:            "Starter",
		Price:           decimal.NewFromInt(160000),
		Currency:        "usd",
		BillingInterval: types.BillingIntervalMonthly,
	}
	s.testData.proPlan = &plan.Plan{
		ID:              "plan_pro",
		Name:            "Pro",
		Price:           decimal.NewFromInt(235000),
		Currency:        "usd",
		BillingInterval: types.BillingIntervalMonthly,
	}
	planStore := s.GetStores().PlanRepo.(*testutil.InMemoryPlanStore)
	s.NoError(planStore.Add(s.testData.starterPlan))
	s.NoError(planStore.Add(s.testData.proPlan))

	sub, err := s.subscriptionSvc.CreateSubscription(s.GetContext(), "plan_starter", s.testData.periodStart)
	s.Require().NoError(err)
	// Pin a 30-day period regardless of the calendar month
	store := s.GetStores().SubscriptionRepo.(*testutil.InMemorySubscriptionStore)
	sub.CurrentPeriodEnd = s.testData.periodStart.AddDate(0, 0, 30)
	s.Require().NoError(store.Update(s.GetContext(), sub))
	s.testData.sub = sub
}

// sevenDaysIn is the upgrade instant with 23 of 30 days remaining
func (s *UpgradeServiceSuite) sevenDaysIn() time.Time {
	return s.testData.periodStart.AddDate(0, 0, 7)
}

func (s *UpgradeServiceSuite) TestPreviewUpgrade() {
	resp, err := s.service.PreviewUpgrade(s.GetContext(), dto.PreviewUpgradeRequest{PlanID: "plan_pro"}, s.sevenDaysIn())
	s.NoError(err)
	s.Equal(23, resp.RemainingDays)
	s.Equal(30, resp.TotalDays)
	s.True(decimal.NewFromInt(122667).Equal(resp.UnusedValue), "unused: %s", resp.UnusedValue)
	s.True(decimal.NewFromInt(180167).Equal(resp.NewPlanProrated), "prorated: %s", resp.NewPlanProrated)
	s.True(decimal.NewFromInt(57500).Equal(resp.CorrectCharge), "charge: %s", resp.CorrectCharge)
	s.Equal("usd", resp.Currency)
}

func (s *UpgradeServiceSuite) TestInitiateImmediateUpgrade() {
	resp, err := s.service.InitiateUpgrade(s.GetContext(), dto.UpgradeRequest{
		PlanID:        "plan_pro",
		UpgradeOption: types.UpgradeOptionImmediate,
	}, s.sevenDaysIn())
	s.NoError(err)
	s.Equal(types.TransactionStatusPending, resp.Status)
	s.True(decimal.NewFromInt(57500).Equal(resp.Amount), "amount: %s", resp.Amount)
	s.NotEmpty(resp.OrderID)

	txn, err := s.GetStores().TransactionRepo.GetByOrderID(s.GetContext(), resp.OrderID)
	s.NoError(err)
	s.Equal(types.ReasonImmediateUpgrade, txn.Reason.Type)
	s.Equal("plan_starter", txn.Reason.ImmediateUpgrade.FromPlanID)
	s.Equal("plan_pro", txn.Reason.ImmediateUpgrade.ToPlanID)
}

func (s *UpgradeServiceSuite) TestInitiateDeferredUpgradeChargesFullPrice() {
	resp, err := s.service.InitiateUpgrade(s.GetContext(), dto.UpgradeRequest{
		PlanID:        "plan_pro",
		UpgradeOption: types.UpgradeOptionEndOfPeriod,
	}, s.sevenDaysIn())
	s.NoError(err)
	s.True(decimal.NewFromInt(235000).Equal(resp.Amount), "amount: %s", resp.Amount)

	txn, err := s.GetStores().TransactionRepo.GetByOrderID(s.GetContext(), resp.OrderID)
	s.NoError(err)
	s.Equal(types.ReasonScheduledUpgrade, txn.Reason.Type)
	s.Equal(s.testData.sub.CurrentPeriodEnd, txn.Reason.ScheduledUpgrade.ActivateAt)
}

func (s *UpgradeServiceSuite) TestProcessPaidOrderImmediate() {
	now := s.sevenDaysIn()
	initiated, err := s.service.InitiateUpgrade(s.GetContext(), dto.UpgradeRequest{
		PlanID:        "plan_pro",
		UpgradeOption: types.UpgradeOptionImmediate,
	}, now)
	s.Require().NoError(err)

	duplicate, err := s.service.ProcessPaidOrder(s.GetContext(), initiated.OrderID, "gw_123", initiated.Amount, now)
	s.NoError(err)
	s.False(duplicate)

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), s.testData.sub.ID)
	s.NoError(err)
	s.Equal("plan_pro", sub.PlanID)
	s.Equal(now, sub.CurrentPeriodStart)

	txn, err := s.GetStores().TransactionRepo.GetByOrderID(s.GetContext(), initiated.OrderID)
	s.NoError(err)
	s.Equal(types.TransactionStatusPaid, txn.TransactionStatus)
	s.Equal("gw_123", txn.GatewayTransactionID)
	s.Equal(types.ReasonImmediateUpgrade, txn.Reason.Type)
	s.Equal(23, txn.Reason.ImmediateUpgrade.RemainingDays)

	// Charged exactly the correct amount: no compensation
	credits, err := s.GetStores().CreditRepo.ListByTenant(s.GetContext(), types.DefaultTenantID)
	s.NoError(err)
	s.Empty(credits)
}

func (s *UpgradeServiceSuite) TestProcessPaidOrderIsIdempotent() {
	now := s.sevenDaysIn()
	initiated, err := s.service.InitiateUpgrade(s.GetContext(), dto.UpgradeRequest{
		PlanID:        "plan_pro",
		UpgradeOption: types.UpgradeOptionImmediate,
	}, now)
	s.Require().NoError(err)

	duplicate, err := s.service.ProcessPaidOrder(s.GetContext(), initiated.OrderID, "gw_1", initiated.Amount, now)
	s.NoError(err)
	s.False(duplicate)

	subAfterFirst, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), s.testData.sub.ID)
	s.NoError(err)

	// Redelivery: acked as duplicate, nothing mutated again
	duplicate, err = s.service.ProcessPaidOrder(s.GetContext(), initiated.OrderID, "gw_1", initiated.Amount, now.Add(time.Hour))
	s.NoError(err)
	s.True(duplicate)

	subAfterSecond, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), s.testData.sub.ID)
	s.NoError(err)
	s.Equal(subAfterFirst.Version, subAfterSecond.Version)
	s.Equal(subAfterFirst.CurrentPeriodStart, subAfterSecond.CurrentPeriodStart)
}

func (s *UpgradeServiceSuite) TestProcessPaidOrderOverchargeCompensation() {
	now := s.sevenDaysIn()
	initiated, err := s.service.InitiateUpgrade(s.GetContext(), dto.UpgradeRequest{
		PlanID:        "plan_pro",
		UpgradeOption: types.UpgradeOptionImmediate,
	}, now)
	s.Require().NoError(err)

	// The gateway charged 139485 above the correct amount
	overcharge := decimal.NewFromInt(139485)
	charged := initiated.Amount.Add(overcharge)
	_, err = s.service.ProcessPaidOrder(s.GetContext(), initiated.OrderID, "gw_over", charged, now)
	s.NoError(err)

	credits, err := s.GetStores().CreditRepo.ListByTenant(s.GetContext(), types.DefaultTenantID)
	s.NoError(err)
	s.Require().Len(credits, 1)
	s.True(overcharge.Equal(credits[0].Amount), "credit amount: %s", credits[0].Amount)
	s.Equal(types.CreditStatusActive, credits[0].CreditStatus)

	// Exactly one negative refund-pending audit row, cross-referencing the
	// original charge
	txnStore := s.GetStores().TransactionRepo.(*testutil.InMemoryTransactionStore)
	var refunds int
	for _, txn := range txnStore.ListByTenant(types.DefaultTenantID) {
		if txn.TransactionStatus == types.TransactionStatusRefundPending {
			refunds++
			s.True(overcharge.Neg().Equal(txn.Amount), "refund amount: %s", txn.Amount)
			s.Require().NotNil(txn.RefTransactionID)
			s.Equal(initiated.TransactionID, *txn.RefTransactionID)
			s.Equal(types.ReasonOverchargeRefund, txn.Reason.Type)
		}
	}
	s.Equal(1, refunds)
}

func (s *UpgradeServiceSuite) TestProcessPaidOrderWithinThresholdNoCompensation() {
	now := s.sevenDaysIn()
	initiated, err := s.service.InitiateUpgrade(s.GetContext(), dto.UpgradeRequest{
		PlanID:        "plan_pro",
		UpgradeOption: types.UpgradeOptionImmediate,
	}, now)
	s.Require().NoError(err)

	// Exactly at the threshold: not compensated, the check is strict
	charged := initiated.Amount.Add(decimal.NewFromInt(1000))
	_, err = s.service.ProcessPaidOrder(s.GetContext(), initiated.OrderID, "gw_small", charged, now)
	s.NoError(err)

	credits, err := s.GetStores().CreditRepo.ListByTenant(s.GetContext(), types.DefaultTenantID)
	s.NoError(err)
	s.Empty(credits)
}

func (s *UpgradeServiceSuite) TestProcessPaidOrderUnderchargeNotCompensated() {
	now := s.sevenDaysIn()
	initiated, err := s.service.InitiateUpgrade(s.GetContext(), dto.UpgradeRequest{
		PlanID:        "plan_pro",
		UpgradeOption: types.UpgradeOptionImmediate,
	}, now)
	s.Require().NoError(err)

	charged := initiated.Amount.Sub(decimal.NewFromInt(5000))
	_, err = s.service.ProcessPaidOrder(s.GetContext(), initiated.OrderID, "gw_under", charged, now)
	s.NoError(err)

	credits, err := s.GetStores().CreditRepo.ListByTenant(s.GetContext(), types.DefaultTenantID)
	s.NoError(err)
	s.Empty(credits)
}

func (s *UpgradeServiceSuite) TestProcessPaidOrderDeferred() {
	now := s.sevenDaysIn()
	initiated, err := s.service.InitiateUpgrade(s.GetContext(), dto.UpgradeRequest{
		PlanID:        "plan_pro",
		UpgradeOption: types.UpgradeOptionEndOfPeriod,
	}, now)
	s.Require().NoError(err)

	duplicate, err := s.service.ProcessPaidOrder(s.GetContext(), initiated.OrderID, "gw_def", initiated.Amount, now)
	s.NoError(err)
	s.False(duplicate)

	// Current plan and period untouched, only the intent is recorded
	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), s.testData.sub.ID)
	s.NoError(err)
	s.Equal("plan_starter", sub.PlanID)
	s.Equal(s.testData.sub.CurrentPeriodStart, sub.CurrentPeriodStart)
	s.Equal(s.testData.sub.CurrentPeriodEnd, sub.CurrentPeriodEnd)
	s.Require().NotNil(sub.IntendedPlanID)
	s.Equal("plan_pro", *sub.IntendedPlanID)

	// SCHEDULED is terminal for redelivery purposes
	txn, err := s.GetStores().TransactionRepo.GetByOrderID(s.GetContext(), initiated.OrderID)
	s.NoError(err)
	s.Equal(types.TransactionStatusScheduled, txn.TransactionStatus)

	duplicate, err = s.service.ProcessPaidOrder(s.GetContext(), initiated.OrderID, "gw_def", initiated.Amount, now)
	s.NoError(err)
	s.True(duplicate)
}

func (s *UpgradeServiceSuite) TestProcessPaidOrderNewTenant() {
	// A fresh tenant with no subscription buys a plan outright
	ctx := types.SetTenantID(s.GetContext(), "tenant_fresh")

	initiated, err := s.service.InitiateUpgrade(ctx, dto.UpgradeRequest{
		PlanID:        "plan_starter",
		UpgradeOption: types.UpgradeOptionImmediate,
	}, s.testData.periodStart)
	s.Require().NoError(err)
	// No current plan to prorate against: full price
	s.True(decimal.NewFromInt(160000).Equal(initiated.Amount), "amount: %s", initiated.Amount)

	duplicate, err := s.service.ProcessPaidOrder(ctx, initiated.OrderID, "gw_new", initiated.Amount, s.testData.periodStart)
	s.NoError(err)
	s.False(duplicate)

	sub, err := s.GetStores().SubscriptionRepo.GetByTenant(ctx, "tenant_fresh")
	s.NoError(err)
	s.Equal("plan_starter", sub.PlanID)
	s.Equal(types.SubscriptionStatusActive, sub.SubscriptionStatus)

	txn, err := s.GetStores().TransactionRepo.GetByOrderID(ctx, initiated.OrderID)
	s.NoError(err)
	s.Equal(types.TransactionStatusPaid, txn.TransactionStatus)
	s.Equal(types.ReasonNewSubscription, txn.Reason.Type)
}

func (s *UpgradeServiceSuite) TestProcessPaidOrderNoPartialStateOnBadInstant() {
	now := s.sevenDaysIn()
	initiated, err := s.service.InitiateUpgrade(s.GetContext(), dto.UpgradeRequest{
		PlanID:        "plan_pro",
		UpgradeOption: types.UpgradeOptionImmediate,
	}, now)
	s.Require().NoError(err)

	// Settlement arrives after the period already ended: proration refuses,
	// and neither the subscription nor the transaction moves.
	lateNow := s.testData.sub.CurrentPeriodEnd.AddDate(0, 0, 1)
	_, err = s.service.ProcessPaidOrder(s.GetContext(), initiated.OrderID, "gw_late", initiated.Amount, lateNow)
	s.Error(err)
	s.True(ierr.IsInvalidTimeRange(err))

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), s.testData.sub.ID)
	s.NoError(err)
	s.Equal("plan_starter", sub.PlanID)
	s.Equal(s.testData.sub.Version, sub.Version)

	txn, err := s.GetStores().TransactionRepo.GetByOrderID(s.GetContext(), initiated.OrderID)
	s.NoError(err)
	s.Equal(types.TransactionStatusPending, txn.TransactionStatus)
}

func (s *UpgradeServiceSuite) TestProcessPaidOrderUnknownOrder() {
	_, err := s.service.ProcessPaidOrder(s.GetContext(), "order_missing", "gw_x", decimal.Zero, s.sevenDaysIn())
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *UpgradeServiceSuite) TestMarkOrderFailed() {
	initiated, err := s.service.InitiateUpgrade(s.GetContext(), dto.UpgradeRequest{
		PlanID:        "plan_pro",
		UpgradeOption: types.UpgradeOptionImmediate,
	}, s.sevenDaysIn())
	s.Require().NoError(err)

	s.NoError(s.service.MarkOrderFailed(s.GetContext(), initiated.OrderID))

	txn, err := s.GetStores().TransactionRepo.GetByOrderID(s.GetContext(), initiated.OrderID)
	s.NoError(err)
	s.Equal(types.TransactionStatusFailed, txn.TransactionStatus)

	s.Run("failed order cannot settle", func() {
		_, err := s.service.ProcessPaidOrder(s.GetContext(), initiated.OrderID, "gw_x", initiated.Amount, s.sevenDaysIn())
		s.Error(err)
		s.True(ierr.IsInvalidOperation(err))
	})

	s.Run("marking failed twice is a no-op", func() {
		s.NoError(s.service.MarkOrderFailed(s.GetContext(), initiated.OrderID))
	})
}
