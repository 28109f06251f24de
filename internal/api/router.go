package api

import (
	"github.com/brewstack/brewstack/internal/api/cron"
	v1 "github.com/brewstack/brewstack/internal/api/v1"
	"github.com/brewstack/brewstack/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Plan         *v1.PlanHandler
	Subscription *v1.SubscriptionHandler
	Webhook      *v1.WebhookHandler
	CronSub      *cron.SubscriptionHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	// The gateway authenticates by signature, not tenant header
	router.POST("/webhooks/payment", handlers.Webhook.HandlePaymentWebhook)

	v1Group := router.Group("/v1")
	v1Group.Use(middleware.TenantMiddleware)
	registerV1Routes(v1Group, handlers)

	cronGroup := router.Group("/cron")
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	plans := router.Group("/plans")
	{
		plans.GET("", handlers.Plan.GetPlans)
		plans.GET("/:id", handlers.Plan.GetPlan)
	}

	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.GET("/current", handlers.Subscription.GetCurrentSubscription)
		subscriptions.POST("/upgrade", handlers.Subscription.InitiateUpgrade)
		subscriptions.POST("/upgrade/preview", handlers.Subscription.PreviewUpgrade)
		subscriptions.POST("/upgrade/complete", handlers.Subscription.CompleteUpgrade)
		subscriptions.POST("/cancel", handlers.Subscription.CancelSubscription)
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("/activate-scheduled", handlers.CronSub.ActivateScheduledChanges)
	}
}
