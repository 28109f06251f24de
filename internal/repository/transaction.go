package repository

import (
	"context"
	"errors"
	"time"

	"github.com/brewstack/brewstack/internal/domain/transaction"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/logger"
	"github.com/brewstack/brewstack/internal/postgres"
	"github.com/brewstack/brewstack/internal/types"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewTransactionRepository creates a transaction repository
func NewTransactionRepository(db postgres.IClient, logger *logger.Logger) transaction.Repository {
	return &transactionRepository{db: db, logger: logger}
}

func (r *transactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	if err := txn.Reason.Validate(); err != nil {
		return err
	}
	if err := r.db.Querier(ctx).Create(txn).Error; err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create transaction").
			WithReportableDetails(map[string]any{"transaction_id": txn.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *transactionRepository) Get(ctx context.Context, id string) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	err := r.db.Querier(ctx).
		Where("id = ?", id).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ierr.NewError("transaction not found").
				WithHintf("Transaction %s does not exist", id).
				WithReportableDetails(map[string]any{"transaction_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load transaction").
			Mark(ierr.ErrDatabase)
	}
	return &txn, nil
}

func (r *transactionRepository) GetByOrderID(ctx context.Context, orderID string) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	err := r.db.Querier(ctx).
		Where("order_id = ?", orderID).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ierr.NewError("transaction not found for order").
				WithHintf("No transaction for order %s", orderID).
				WithReportableDetails(map[string]any{"order_id": orderID}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load transaction").
			Mark(ierr.ErrDatabase)
	}
	return &txn, nil
}

// UpdateStatus transitions only the status column (and the typed reason when
// provided). Amounts are immutable after creation.
func (r *transactionRepository) UpdateStatus(ctx context.Context, id string, status types.TransactionStatus, reason *types.TransactionReason) error {
	if err := status.Validate(); err != nil {
		return err
	}
	updates := map[string]any{
		"transaction_status": status,
		"updated_at":         time.Now().UTC(),
		"updated_by":         types.GetUserID(ctx),
	}
	if reason != nil {
		if err := reason.Validate(); err != nil {
			return err
		}
		updates["reason"] = *reason
	}

	res := r.db.Querier(ctx).
		Model(&transaction.Transaction{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return ierr.WithError(res.Error).
			WithHint("Failed to update transaction status").
			WithReportableDetails(map[string]any{"transaction_id": id}).
			Mark(ierr.ErrDatabase)
	}
	if res.RowsAffected == 0 {
		return ierr.NewError("transaction not found").
			WithHintf("Transaction %s does not exist", id).
			WithReportableDetails(map[string]any{"transaction_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *transactionRepository) SetGatewayTransactionID(ctx context.Context, id string, gatewayTransactionID string) error {
	res := r.db.Querier(ctx).
		Model(&transaction.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"gateway_transaction_id": gatewayTransactionID,
			"updated_at":             time.Now().UTC(),
		})
	if res.Error != nil {
		return ierr.WithError(res.Error).
			WithHint("Failed to record gateway transaction reference").
			WithReportableDetails(map[string]any{"transaction_id": id}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *transactionRepository) ListScheduledByTenantAndPlan(ctx context.Context, tenantID, planID string) ([]*transaction.Transaction, error) {
	var txns []*transaction.Transaction
	err := r.db.Querier(ctx).
		Where("tenant_id = ? AND plan_id = ? AND transaction_status = ?",
			tenantID, planID, types.TransactionStatusScheduled).
		Order("created_at asc").
		Find(&txns).Error
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list scheduled transactions").
			Mark(ierr.ErrDatabase)
	}
	return txns, nil
}
