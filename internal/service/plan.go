package service

import (
	"context"

	"github.com/brewstack/brewstack/internal/api/dto"
)

// PlanService exposes the read-only plan catalog
type PlanService interface {
	// GetPlan retrieves a plan by its ID
	GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error)

	// ListPlans lists all purchasable plans
	ListPlans(ctx context.Context) (*dto.ListPlansResponse, error)
}

type planService struct {
	ServiceParams
}

// NewPlanService creates a new instance of PlanService
func NewPlanService(params ServiceParams) PlanService {
	return &planService{ServiceParams: params}
}

func (s *planService) GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewPlanResponse(p), nil
}

func (s *planService) ListPlans(ctx context.Context) (*dto.ListPlansResponse, error) {
	plans, err := s.PlanRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.PlanResponse, len(plans))
	for i, p := range plans {
		items[i] = dto.NewPlanResponse(p)
	}
	return &dto.ListPlansResponse{Items: items, Total: len(items)}, nil
}
