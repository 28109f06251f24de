package plan

import (
	"github.com/brewstack/brewstack/internal/types"
	"github.com/shopspring/decimal"
)

// Plan is a purchasable subscription tier. Rows are immutable once referenced
// by a live subscription: a price change creates a new plan row so historical
// transactions stay interpretable against the price at time of purchase.
type Plan struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	LookupKey   string `db:"lookup_key" json:"lookup_key"`
	Description string `db:"description" json:"description"`

	// Price in integer minor currency units
	Price    decimal.Decimal `db:"price" json:"price"`
	Currency string          `db:"currency" json:"currency"`

	BillingInterval types.BillingInterval `db:"billing_interval" json:"billing_interval"`

	// Usage limits enforced elsewhere in the product
	MaxRecipes     int `db:"max_recipes" json:"max_recipes"`
	MaxBatches     int `db:"max_batches" json:"max_batches"`
	MaxTeamMembers int `db:"max_team_members" json:"max_team_members"`

	types.BaseModel
}

// IsFree reports whether this is a zero-price tier.
func (p *Plan) IsFree() bool {
	return p.Price.IsZero()
}

// TableName overrides the gorm table name
func (p *Plan) TableName() string {
	return "plans"
}
