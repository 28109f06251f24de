package repository

import (
	"context"
	"errors"

	"github.com/brewstack/brewstack/internal/domain/credit"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/logger"
	"github.com/brewstack/brewstack/internal/postgres"
	"gorm.io/gorm"
)

type creditRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewCreditRepository creates an account credit repository
func NewCreditRepository(db postgres.IClient, logger *logger.Logger) credit.Repository {
	return &creditRepository{db: db, logger: logger}
}

func (r *creditRepository) Create(ctx context.Context, c *credit.AccountCredit) error {
	if err := r.db.Querier(ctx).Create(c).Error; err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create account credit").
			WithReportableDetails(map[string]any{"credit_id": c.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *creditRepository) Get(ctx context.Context, id string) (*credit.AccountCredit, error) {
	var c credit.AccountCredit
	err := r.db.Querier(ctx).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ierr.NewError("account credit not found").
				WithHintf("Credit %s does not exist", id).
				WithReportableDetails(map[string]any{"credit_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load account credit").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *creditRepository) ListByTenant(ctx context.Context, tenantID string) ([]*credit.AccountCredit, error) {
	var credits []*credit.AccountCredit
	err := r.db.Querier(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at desc").
		Find(&credits).Error
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list account credits").
			Mark(ierr.ErrDatabase)
	}
	return credits, nil
}
