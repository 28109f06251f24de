package credit

import (
	"time"

	"github.com/brewstack/brewstack/internal/types"
	"github.com/shopspring/decimal"
)

// AccountCredit is a monetary credit owed to a tenant, created when an
// overcharge is detected. Consumption by a future billing cycle happens
// outside this core; only creation is owned here.
type AccountCredit struct {
	ID string `db:"id" json:"id"`

	// Reference is a short human-facing identifier, e.g. CR-XY12A8Q
	Reference string `db:"reference" json:"reference"`

	// Amount in integer minor currency units, always positive
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	Currency string          `db:"currency" json:"currency"`

	Reason types.CreditReason `db:"reason" json:"reason"`

	CreditStatus types.CreditStatus `db:"credit_status" json:"credit_status"`

	// TransactionID references the REFUND_PENDING audit transaction created
	// alongside this credit
	TransactionID string `db:"transaction_id" json:"transaction_id"`

	ExpiresAt *time.Time `db:"expires_at" json:"expires_at"`

	types.BaseModel
}

// TableName overrides the gorm table name
func (c *AccountCredit) TableName() string {
	return "account_credits"
}
