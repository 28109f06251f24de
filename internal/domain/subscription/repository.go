package subscription

import (
	"context"
	"time"
)

// Repository provides access to the subscription store.
type Repository interface {
	Create(ctx context.Context, subscription *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)

	// GetByTenant returns the tenant's subscription (tenant:subscription is 1:1)
	GetByTenant(ctx context.Context, tenantID string) (*Subscription, error)

	// Update persists the subscription using an optimistic version check:
	// the write succeeds only if the stored version matches the loaded one,
	// and increments the version. Fails with a version conflict otherwise.
	Update(ctx context.Context, subscription *Subscription) error

	// ListDueForActivation returns subscriptions with an outstanding deferred
	// plan change whose current period has elapsed at the given instant.
	ListDueForActivation(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)
}
