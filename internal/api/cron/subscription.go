package cron

import (
	"net/http"
	"time"

	"github.com/brewstack/brewstack/internal/api/dto"
	"github.com/brewstack/brewstack/internal/logger"
	"github.com/brewstack/brewstack/internal/service"
	"github.com/gin-gonic/gin"
)

// SubscriptionHandler handles subscription related cron jobs
type SubscriptionHandler struct {
	sweeperService service.SweeperService
	logger         *logger.Logger
}

// NewSubscriptionHandler creates a new subscription cron handler
func NewSubscriptionHandler(
	sweeperService service.SweeperService,
	logger *logger.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		sweeperService: sweeperService,
		logger:         logger,
	}
}

// ActivateScheduledChanges promotes deferred plan changes whose billing
// period has ended. Invoked by the scheduler; safe to run concurrently.
func (h *SubscriptionHandler) ActivateScheduledChanges(c *gin.Context) {
	h.logger.Infow("starting scheduled activation cron job")

	count, err := h.sweeperService.RunOnce(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Errorw("failed to activate scheduled plan changes",
			"error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed scheduled activation cron job",
		"promoted_count", count)
	c.JSON(http.StatusOK, dto.SweeperRunResponse{PromotedCount: count})
}
