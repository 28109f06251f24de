package service

import (
	"context"
	"time"

	"github.com/brewstack/brewstack/internal/api/dto"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/gateway"
)

// PaymentWebhookService receives payment gateway callbacks. The gateway
// delivers at least once, so every path here must tolerate redelivery.
type PaymentWebhookService interface {
	// HandlePaymentEvent verifies the signed payload and settles or fails
	// the referenced order.
	HandlePaymentEvent(ctx context.Context, payload []byte, signature string, now time.Time) (*dto.WebhookAck, error)
}

type paymentWebhookService struct {
	ServiceParams
	verifier   gateway.Verifier
	upgradeSvc UpgradeService
}

func NewPaymentWebhookService(
	params ServiceParams,
	verifier gateway.Verifier,
	upgradeSvc UpgradeService,
) PaymentWebhookService {
	return &paymentWebhookService{
		ServiceParams: params,
		verifier:      verifier,
		upgradeSvc:    upgradeSvc,
	}
}

func (s *paymentWebhookService) HandlePaymentEvent(ctx context.Context, payload []byte, signature string, now time.Time) (*dto.WebhookAck, error) {
	event, err := s.verifier.VerifyAndParse(payload, signature)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("received payment webhook",
		"order_id", event.OrderID,
		"gateway_transaction_id", event.TransactionID,
		"status", event.Status)

	switch event.Status {
	case gateway.EventStatusPaid:
		duplicate, err := s.upgradeSvc.ProcessPaidOrder(ctx, event.OrderID, event.TransactionID, event.Amount, now)
		if err != nil {
			return nil, err
		}
		return &dto.WebhookAck{Status: "ok", Duplicate: duplicate}, nil
	case gateway.EventStatusFailed:
		if err := s.upgradeSvc.MarkOrderFailed(ctx, event.OrderID); err != nil {
			return nil, err
		}
		return &dto.WebhookAck{Status: "ok"}, nil
	default:
		return nil, ierr.NewError("unsupported webhook status").
			WithHintf("Status %s is not handled", event.Status).
			Mark(ierr.ErrValidation)
	}
}
