package transaction

import (
	"context"

	"github.com/brewstack/brewstack/internal/types"
)

// Repository provides access to the transaction store. Rows are append-mostly:
// amounts are immutable, only the status column transitions.
type Repository interface {
	Create(ctx context.Context, transaction *Transaction) error
	Get(ctx context.Context, id string) (*Transaction, error)

	// GetByOrderID loads a transaction by the gateway's order identifier
	GetByOrderID(ctx context.Context, orderID string) (*Transaction, error)

	// UpdateStatus transitions the transaction status and stamps the typed
	// reason if one is provided
	UpdateStatus(ctx context.Context, id string, status types.TransactionStatus, reason *types.TransactionReason) error

	// SetGatewayTransactionID stores the gateway-side transaction reference
	SetGatewayTransactionID(ctx context.Context, id string, gatewayTransactionID string) error

	// ListScheduledByTenantAndPlan returns SCHEDULED transactions for the
	// tenant and plan, used by the sweeper to settle deferred upgrades
	ListScheduledByTenantAndPlan(ctx context.Context, tenantID, planID string) ([]*Transaction, error)
}
