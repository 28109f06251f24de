package testutil

import (
	"context"

	"github.com/brewstack/brewstack/internal/domain/plan"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/types"
)

// InMemoryPlanStore implements plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

// NewInMemoryPlanStore creates a new in-memory plan store
func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.Plan](),
	}
}

// Add seeds a catalog plan; the billing core itself never creates plans
func (s *InMemoryPlanStore) Add(p *plan.Plan) error {
	if p.Status == "" {
		p.Status = types.StatusPublished
	}
	return s.InMemoryStore.Create(context.Background(), p.ID, p)
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || p.Status != types.StatusPublished {
		return nil, ierr.NewError("plan not found").
			WithHintf("Plan %s does not exist", id).
			WithReportableDetails(map[string]any{"plan_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryPlanStore) List(ctx context.Context) ([]*plan.Plan, error) {
	return s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, p *plan.Plan, _ interface{}) bool {
			return p != nil && p.Status == types.StatusPublished
		},
		func(i, j *plan.Plan) bool {
			return i.Price.LessThan(j.Price)
		})
}
