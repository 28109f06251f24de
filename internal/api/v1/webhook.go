package v1

import (
	"io"
	"net/http"
	"time"

	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/logger"
	"github.com/brewstack/brewstack/internal/service"
	"github.com/gin-gonic/gin"
)

// HeaderWebhookSignature carries the gateway's hex HMAC-SHA256 of the raw body
const HeaderWebhookSignature = "X-Webhook-Signature"

type WebhookHandler struct {
	service service.PaymentWebhookService
	log     *logger.Logger
}

func NewWebhookHandler(service service.PaymentWebhookService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		log:     log,
	}
}

// @Summary Payment gateway webhook
// @Description Receive a signed payment event from the gateway
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string true "HMAC-SHA256 signature of the raw body"
// @Success 200 {object} dto.WebhookAck
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 401 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /webhooks/payment [post]
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	// Signature verification needs the raw body, not the parsed form
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read webhook payload").
			Mark(ierr.ErrValidation))
		return
	}

	ack, err := h.service.HandlePaymentEvent(c.Request.Context(), payload,
		c.GetHeader(HeaderWebhookSignature), time.Now().UTC())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ack)
}
