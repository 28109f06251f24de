package transaction

import (
	"github.com/brewstack/brewstack/internal/types"
	"github.com/shopspring/decimal"
)

// Transaction is an append-only payment record. The amount is never mutated
// after creation; corrections are new rows. Only the status transitions.
type Transaction struct {
	ID string `db:"id" json:"id"`

	// OrderID is the payment gateway's order identifier used to correlate
	// webhook deliveries with this transaction
	OrderID string `db:"order_id" json:"order_id"`

	// GatewayTransactionID is the gateway-side transaction reference, set
	// once the gateway reports the payment
	GatewayTransactionID string `db:"gateway_transaction_id" json:"gateway_transaction_id"`

	// PlanID is the plan being purchased
	PlanID string `db:"plan_id" json:"plan_id"`

	// Amount in integer minor currency units. Negative amounts are
	// refunds/credits.
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	Currency string          `db:"currency" json:"currency"`

	TransactionStatus types.TransactionStatus `db:"transaction_status" json:"transaction_status"`

	// UpgradeOption records the user's immediate vs end-of-period choice
	UpgradeOption types.UpgradeOption `db:"upgrade_option" json:"upgrade_option"`

	// BillingCycle labels the period this transaction pays for, e.g. 2026-08
	BillingCycle string `db:"billing_cycle" json:"billing_cycle"`

	// Reason is the typed audit record of why this transaction exists and
	// the calculation inputs behind its amount
	Reason types.TransactionReason `db:"reason" json:"reason" gorm:"type:jsonb"`

	// RefTransactionID cross-references the original charge for refund rows
	RefTransactionID *string `db:"ref_transaction_id" json:"ref_transaction_id"`

	types.BaseModel
}

// TableName overrides the gorm table name
func (t *Transaction) TableName() string {
	return "transactions"
}

// IsTerminal reports whether this transaction has already been fully
// processed and must not be processed again on webhook redelivery.
func (t *Transaction) IsTerminal() bool {
	return t.TransactionStatus.IsTerminal()
}
