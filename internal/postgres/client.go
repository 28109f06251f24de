package postgres

import (
	"context"
	"time"

	"github.com/brewstack/brewstack/internal/config"
	"github.com/brewstack/brewstack/internal/domain/credit"
	"github.com/brewstack/brewstack/internal/domain/plan"
	"github.com/brewstack/brewstack/internal/domain/subscription"
	"github.com/brewstack/brewstack/internal/domain/transaction"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/logger"
	"github.com/brewstack/brewstack/internal/types"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// IClient defines the interface for postgres client operations
type IClient interface {
	// WithTx wraps the given function in a transaction. Nested calls reuse
	// the transaction already on the context.
	WithTx(ctx context.Context, fn func(context.Context) error) error

	// TxFromContext returns the transaction from context if it exists
	TxFromContext(ctx context.Context) *gorm.DB

	// Querier returns the current transaction handle if in a transaction,
	// or the regular connection otherwise
	Querier(ctx context.Context) *gorm.DB
}

// Client wraps gorm.DB to provide transaction management
type Client struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewDB opens the postgres connection pool
func NewDB(cfg *config.Configuration) (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.Open(cfg.Postgres.GetDSN()), &gorm.Config{})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to postgres").
			Mark(ierr.ErrDatabase)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to access connection pool").
			Mark(ierr.ErrDatabase)
	}
	sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)

	if cfg.Postgres.AutoMigrate {
		if err := db.AutoMigrate(
			&plan.Plan{},
			&subscription.Subscription{},
			&transaction.Transaction{},
			&credit.AccountCredit{},
		); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to run schema migrations").
				Mark(ierr.ErrDatabase)
		}
	}

	return db, nil
}

// NewClient creates a new postgres client with transaction management
func NewClient(db *gorm.DB, logger *logger.Logger) IClient {
	return &Client{db: db, logger: logger}
}

func (c *Client) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if c.TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, types.CtxDBTransaction, tx)
		return fn(txCtx)
	})
}

func (c *Client) TxFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(types.CtxDBTransaction).(*gorm.DB); ok {
		return tx
	}
	return nil
}

func (c *Client) Querier(ctx context.Context) *gorm.DB {
	if tx := c.TxFromContext(ctx); tx != nil {
		return tx
	}
	return c.db.WithContext(ctx)
}
