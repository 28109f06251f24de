package dto

import (
	"github.com/brewstack/brewstack/internal/domain/plan"
	"github.com/brewstack/brewstack/internal/types"
	"github.com/shopspring/decimal"
)

// PlanResponse is the read model for a catalog plan
type PlanResponse struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	LookupKey       string                `json:"lookup_key"`
	Description     string                `json:"description"`
	Price           decimal.Decimal       `json:"price"`
	Currency        string                `json:"currency"`
	BillingInterval types.BillingInterval `json:"billing_interval"`
	MaxRecipes      int                   `json:"max_recipes"`
	MaxBatches      int                   `json:"max_batches"`
	MaxTeamMembers  int                   `json:"max_team_members"`
}

// NewPlanResponse converts a domain plan to its response shape
func NewPlanResponse(p *plan.Plan) *PlanResponse {
	if p == nil {
		return nil
	}
	return &PlanResponse{
		ID:              p.ID,
		Name:            p.Name,
		LookupKey:       p.LookupKey,
		Description:     p.Description,
		Price:           p.Price,
		Currency:        p.Currency,
		BillingInterval: p.BillingInterval,
		MaxRecipes:      p.MaxRecipes,
		MaxBatches:      p.MaxBatches,
		MaxTeamMembers:  p.MaxTeamMembers,
	}
}

// ListPlansResponse wraps the plan catalog listing
type ListPlansResponse struct {
	Items []*PlanResponse `json:"items"`
	Total int             `json:"total"`
}
