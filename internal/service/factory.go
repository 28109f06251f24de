package service

import (
	"github.com/brewstack/brewstack/internal/config"
	"github.com/brewstack/brewstack/internal/domain/activity"
	"github.com/brewstack/brewstack/internal/domain/credit"
	"github.com/brewstack/brewstack/internal/domain/plan"
	"github.com/brewstack/brewstack/internal/domain/subscription"
	"github.com/brewstack/brewstack/internal/domain/transaction"
	"github.com/brewstack/brewstack/internal/logger"
	"github.com/brewstack/brewstack/internal/postgres"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	PlanRepo        plan.Repository
	SubRepo         subscription.Repository
	TransactionRepo transaction.Repository
	CreditRepo      credit.Repository

	// Collaborators
	Activity activity.Recorder
}

// NewServiceParams wires the common service dependency bundle
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	planRepo plan.Repository,
	subRepo subscription.Repository,
	transactionRepo transaction.Repository,
	creditRepo credit.Repository,
	activityRecorder activity.Recorder,
) ServiceParams {
	return ServiceParams{
		Logger:          logger,
		Config:          config,
		DB:              db,
		PlanRepo:        planRepo,
		SubRepo:         subRepo,
		TransactionRepo: transactionRepo,
		CreditRepo:      creditRepo,
		Activity:        activityRecorder,
	}
}
