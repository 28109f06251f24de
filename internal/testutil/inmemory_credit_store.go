package testutil

import (
	"context"
	"sort"

	"github.com/brewstack/brewstack/internal/domain/credit"
	ierr "github.com/brewstack/brewstack/internal/errors"
)

// InMemoryCreditStore implements credit.Repository
type InMemoryCreditStore struct {
	*InMemoryStore[*credit.AccountCredit]
}

// NewInMemoryCreditStore creates a new in-memory credit store
func NewInMemoryCreditStore() *InMemoryCreditStore {
	return &InMemoryCreditStore{
		InMemoryStore: NewInMemoryStore[*credit.AccountCredit](),
	}
}

func (s *InMemoryCreditStore) Create(ctx context.Context, c *credit.AccountCredit) error {
	if c == nil {
		return ierr.NewError("credit cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, c.ID, c)
}

func (s *InMemoryCreditStore) Get(ctx context.Context, id string) (*credit.AccountCredit, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("credit not found").
			WithHintf("Credit %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (s *InMemoryCreditStore) ListByTenant(ctx context.Context, tenantID string) ([]*credit.AccountCredit, error) {
	credits, err := s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, c *credit.AccountCredit, _ interface{}) bool {
			return c != nil && c.TenantID == tenantID
		}, nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(credits, func(i, j int) bool {
		return credits[i].CreatedAt.After(credits[j].CreatedAt)
	})
	return credits, nil
}
