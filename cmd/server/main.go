package main

import (
	"context"
	"time"

	"github.com/brewstack/brewstack/internal/api"
	"github.com/brewstack/brewstack/internal/api/cron"
	v1 "github.com/brewstack/brewstack/internal/api/v1"
	"github.com/brewstack/brewstack/internal/cache"
	"github.com/brewstack/brewstack/internal/config"
	"github.com/brewstack/brewstack/internal/domain/activity"
	"github.com/brewstack/brewstack/internal/gateway"
	"github.com/brewstack/brewstack/internal/logger"
	"github.com/brewstack/brewstack/internal/postgres"
	"github.com/brewstack/brewstack/internal/repository"
	"github.com/brewstack/brewstack/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.Initialize,

			// Postgres
			postgres.NewDB,
			postgres.NewClient,

			// Repositories
			repository.NewPlanRepository,
			repository.NewSubscriptionRepository,
			repository.NewTransactionRepository,
			repository.NewCreditRepository,

			// Collaborators owned by the wider application
			activity.NewNoopRecorder,
			gateway.NewVerifier,

			// Service layer
			service.NewServiceParams,
			service.NewPlanService,
			service.NewSubscriptionService,
			service.NewCompensationService,
			service.NewUpgradeService,
			service.NewPaymentWebhookService,
			service.NewSweeperService,

			// API
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	planService service.PlanService,
	subscriptionService service.SubscriptionService,
	upgradeService service.UpgradeService,
	webhookService service.PaymentWebhookService,
	sweeperService service.SweeperService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(),
		Plan:         v1.NewPlanHandler(planService, logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, upgradeService, logger),
		Webhook:      v1.NewWebhookHandler(webhookService, logger),
		CronSub:      cron.NewSubscriptionHandler(sweeperService, logger),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infof("starting API server on %s", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			return nil
		},
	})
}
