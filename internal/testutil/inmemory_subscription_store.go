package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/brewstack/brewstack/internal/domain/subscription"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository with the same
// optimistic versioning contract as the postgres repository: rows are stored
// by value, and Update only succeeds when the caller's version matches.
type InMemorySubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]subscription.Subscription
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		subs: make(map[string]subscription.Subscription),
	}
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subs[sub.ID]; exists {
		return ierr.NewError("subscription already exists").
			WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
			Mark(ierr.ErrAlreadyExists)
	}

	if sub.Version == 0 {
		sub.Version = 1
	}
	s.subs[sub.ID] = *sub
	return nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, exists := s.subs[id]
	if !exists {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	out := sub
	return &out, nil
}

func (s *InMemorySubscriptionStore) GetByTenant(ctx context.Context, tenantID string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.TenantID == tenantID && sub.Status == types.StatusPublished {
			out := sub
			return &out, nil
		}
	}
	return nil, ierr.NewError("subscription not found").
		WithHint("The tenant has no subscription").
		WithReportableDetails(map[string]any{"tenant_id": tenantID}).
		Mark(ierr.ErrNotFound)
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.subs[sub.ID]
	if !exists || stored.Version != sub.Version {
		return ierr.NewError("subscription was modified concurrently").
			WithHint("The subscription changed while processing, please retry").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
				"version":         sub.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	sub.Version++
	sub.UpdatedAt = time.Now().UTC()
	s.subs[sub.ID] = *sub
	return nil
}

func (s *InMemorySubscriptionStore) ListDueForActivation(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*subscription.Subscription
	for _, sub := range s.subs {
		if sub.SubscriptionStatus != types.SubscriptionStatusActive {
			continue
		}
		if !sub.HasScheduledChange() || now.Before(sub.CurrentPeriodEnd) {
			continue
		}
		out := sub
		due = append(due, &out)
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].CurrentPeriodEnd.Before(due[j].CurrentPeriodEnd)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// Clear removes all subscriptions from the store
func (s *InMemorySubscriptionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = make(map[string]subscription.Subscription)
}
