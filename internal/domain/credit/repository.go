package credit

import (
	"context"
)

// Repository provides access to the account credit store.
type Repository interface {
	Create(ctx context.Context, credit *AccountCredit) error
	Get(ctx context.Context, id string) (*AccountCredit, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*AccountCredit, error)
}
