package v1

import (
	"net/http"
	"time"

	"github.com/brewstack/brewstack/internal/api/dto"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/logger"
	"github.com/brewstack/brewstack/internal/service"
	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	service        service.SubscriptionService
	upgradeService service.UpgradeService
	log            *logger.Logger
}

func NewSubscriptionHandler(
	service service.SubscriptionService,
	upgradeService service.UpgradeService,
	log *logger.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		service:        service,
		upgradeService: upgradeService,
		log:            log,
	}
}

// @Summary Get current subscription
// @Description Get the subscription of the tenant in context
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/current [get]
func (h *SubscriptionHandler) GetCurrentSubscription(c *gin.Context) {
	resp, err := h.service.GetCurrentSubscription(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Preview a plan change
// @Description Get the proration quote for an immediate change to the given plan
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body dto.PreviewUpgradeRequest true "Preview request"
// @Success 200 {object} dto.ProrationPreviewResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/upgrade/preview [post]
func (h *SubscriptionHandler) PreviewUpgrade(c *gin.Context) {
	var req dto.PreviewUpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.upgradeService.PreviewUpgrade(c.Request.Context(), req, time.Now().UTC())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Initiate a plan change
// @Description Create the pending payment transaction for a plan change checkout
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body dto.UpgradeRequest true "Upgrade request"
// @Success 201 {object} dto.UpgradeResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/upgrade [post]
func (h *SubscriptionHandler) InitiateUpgrade(c *gin.Context) {
	var req dto.UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.upgradeService.InitiateUpgrade(c.Request.Context(), req, time.Now().UTC())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Complete a plan change
// @Description Settle a pending upgrade synchronously after checkout returns
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body dto.CompleteUpgradeRequest true "Completion request"
// @Success 200 {object} dto.WebhookAck
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/upgrade/complete [post]
func (h *SubscriptionHandler) CompleteUpgrade(c *gin.Context) {
	var req dto.CompleteUpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	duplicate, err := h.upgradeService.ProcessPaidOrder(c.Request.Context(),
		req.OrderID, req.GatewayTransactionID, req.ChargedAmount, time.Now().UTC())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.WebhookAck{Status: "ok", Duplicate: duplicate})
}

// @Summary Cancel subscription
// @Description Soft-cancel the tenant's subscription
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/cancel [post]
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	resp, err := h.service.CancelSubscription(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
