package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/brewstack/brewstack/internal/config"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/shopspring/decimal"
)

// EventStatus is the payment outcome the gateway reports
type EventStatus string

const (
	EventStatusPaid   EventStatus = "PAID"
	EventStatusFailed EventStatus = "FAILED"
)

// WebhookEvent is the payload the payment gateway delivers on checkout
// completion. Delivery is at-least-once; the same event may arrive multiple
// times.
type WebhookEvent struct {
	OrderID       string            `json:"order_id"`
	TransactionID string            `json:"transaction_id"`
	Status        EventStatus       `json:"status"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

// Verifier authenticates and decodes gateway webhook deliveries.
type Verifier interface {
	VerifyAndParse(payload []byte, signature string) (*WebhookEvent, error)
}

type hmacVerifier struct {
	secret []byte
}

// NewVerifier creates the HMAC-SHA256 webhook verifier using the shared
// secret from config. The gateway signs the raw request body and sends the
// hex digest in the signature header.
func NewVerifier(cfg *config.Configuration) Verifier {
	return &hmacVerifier{secret: []byte(cfg.Payment.WebhookSecret)}
}

func (v *hmacVerifier) VerifyAndParse(payload []byte, signature string) (*WebhookEvent, error) {
	if signature == "" {
		return nil, ierr.NewError("missing webhook signature").
			WithHint("Webhook signature header is required").
			Mark(ierr.ErrSignatureInvalid)
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ierr.NewError("webhook signature mismatch").
			WithHint("Webhook signature verification failed").
			Mark(ierr.ErrSignatureInvalid)
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Webhook payload is not valid JSON").
			Mark(ierr.ErrValidation)
	}

	if event.OrderID == "" {
		return nil, ierr.NewError("webhook event missing order id").
			WithHint("Webhook event must carry an order id").
			Mark(ierr.ErrValidation)
	}

	return &event, nil
}

// Sign computes the signature the verifier expects for a payload. Used by
// tests and by local tooling that replays gateway deliveries.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
