package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/brewstack/brewstack/internal/api/dto"
	"github.com/brewstack/brewstack/internal/domain/plan"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/gateway"
	"github.com/brewstack/brewstack/internal/testutil"
	"github.com/brewstack/brewstack/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentWebhookServiceSuite struct {
	testutil.BaseServiceTestSuite
	service    PaymentWebhookService
	upgradeSvc UpgradeService
	secret     string
	testData   struct {
		periodStart time.Time
		orderID     string
		amount      decimal.Decimal
	}
}

func TestPaymentWebhookService(t *testing.T) {
	suite.Run(t, new(PaymentWebhookServiceSuite))
}

func (s *PaymentWebhookServiceSuite) SetupTest() {
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
	subscriptionSvc := NewSubscriptionService(params)
	s.upgradeSvc = NewUpgradeService(params, subscriptionSvc, NewCompensationService(params))
	s.secret = s.GetConfig().Payment.WebhookSecret
	s.service = NewPaymentWebhookService(params, gateway.NewVerifier(s.GetConfig()), s.upgradeSvc)

	s.setupTestData(subscriptionSvc)
}

func (s *PaymentWebhookServiceSuite) setupTestData(subscriptionSvc SubscriptionService) {
	s.testData.periodStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	planStore := s.GetStores().PlanRepo.(*testutil.InMemoryPlanStore)
	s.NoError(planStore.Add(&plan.Plan{
		ID:              "plan_starter",
		Name:            "Starter",
		Price:           decimal.NewFromInt(160000),
		Currency:        "usd",
		BillingInterval: types.BillingIntervalMonthly,
	}))
	s.NoError(planStore.Add(&plan.Plan{
		ID:              "plan_pro",
		Name:            "Pro",
		Price:           decimal.NewFromInt(235000),
		Currency:        "usd",
		BillingInterval: types.BillingIntervalMonthly,
	}))

	_, err := subscriptionSvc.CreateSubscription(s.GetContext(), "plan_starter", s.testData.periodStart)
	s.Require().NoError(err)

	initiated, err := s.upgradeSvc.InitiateUpgrade(s.GetContext(), dto.UpgradeRequest{
		PlanID:        "plan_pro",
		UpgradeOption: types.UpgradeOptionImmediate,
	}, s.testData.periodStart.AddDate(0, 0, 7))
	s.Require().NoError(err)
	s.testData.orderID = initiated.OrderID
	s.testData.amount = initiated.Amount
}

func (s *PaymentWebhookServiceSuite) signedEvent(status gateway.EventStatus) ([]byte, string) {
	payload, err := json.Marshal(gateway.WebhookEvent{
		OrderID:       s.testData.orderID,
		TransactionID: "gw_evt_1",
		Status:        status,
		Amount:        s.testData.amount,
		Currency:      "usd",
	})
	s.Require().NoError(err)
	return payload, gateway.Sign(s.secret, payload)
}

func (s *PaymentWebhookServiceSuite) TestHandlePaidEvent() {
	payload, sig := s.signedEvent(gateway.EventStatusPaid)
	now := s.testData.periodStart.AddDate(0, 0, 7)

	ack, err := s.service.HandlePaymentEvent(s.GetContext(), payload, sig, now)
	s.NoError(err)
	s.Equal("ok", ack.Status)
	s.False(ack.Duplicate)

	txn, err := s.GetStores().TransactionRepo.GetByOrderID(s.GetContext(), s.testData.orderID)
	s.NoError(err)
	s.Equal(types.TransactionStatusPaid, txn.TransactionStatus)
	s.Equal("gw_evt_1", txn.GatewayTransactionID)

	s.Run("redelivery acks as duplicate", func() {
		ack, err := s.service.HandlePaymentEvent(s.GetContext(), payload, sig, now.Add(time.Minute))
		s.NoError(err)
		s.True(ack.Duplicate)
	})
}

func (s *PaymentWebhookServiceSuite) TestHandleFailedEvent() {
	payload, sig := s.signedEvent(gateway.EventStatusFailed)

	ack, err := s.service.HandlePaymentEvent(s.GetContext(), payload, sig, s.testData.periodStart.AddDate(0, 0, 7))
	s.NoError(err)
	s.Equal("ok", ack.Status)

	txn, err := s.GetStores().TransactionRepo.GetByOrderID(s.GetContext(), s.testData.orderID)
	s.NoError(err)
	s.Equal(types.TransactionStatusFailed, txn.TransactionStatus)
}

func (s *PaymentWebhookServiceSuite) TestRejectsBadSignature() {
	payload, _ := s.signedEvent(gateway.EventStatusPaid)

	_, err := s.service.HandlePaymentEvent(s.GetContext(), payload, "deadbeef", s.testData.periodStart)
	s.Error(err)
	s.True(ierr.IsSignatureInvalid(err))

	s.Run("missing signature", func() {
		_, err := s.service.HandlePaymentEvent(s.GetContext(), payload, "", s.testData.periodStart)
		s.Error(err)
		s.True(ierr.IsSignatureInvalid(err))
	})

	// Nothing was mutated
	txn, err := s.GetStores().TransactionRepo.GetByOrderID(s.GetContext(), s.testData.orderID)
	s.NoError(err)
	s.Equal(types.TransactionStatusPending, txn.TransactionStatus)
}

func (s *PaymentWebhookServiceSuite) TestRejectsTamperedPayload() {
	payload, sig := s.signedEvent(gateway.EventStatusPaid)
	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] ^= 0xff

	_, err := s.service.HandlePaymentEvent(s.GetContext(), tampered, sig, s.testData.periodStart)
	s.Error(err)
	s.True(ierr.IsSignatureInvalid(err))
}

func (s *PaymentWebhookServiceSuite) TestRejectsUnknownStatus() {
	payload, err := json.Marshal(map[string]string{
		"order_id": s.testData.orderID,
		"status":   "REFUNDED",
	})
	s.Require().NoError(err)

	_, err = s.service.HandlePaymentEvent(s.GetContext(), payload, gateway.Sign(s.secret, payload), s.testData.periodStart)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}
