package types

import (
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/samber/lo"
)

// CreditStatus is the status of an account credit
type CreditStatus string

const (
	CreditStatusActive   CreditStatus = "ACTIVE"
	CreditStatusConsumed CreditStatus = "CONSUMED"
	CreditStatusExpired  CreditStatus = "EXPIRED"
)

func (s CreditStatus) String() string {
	return string(s)
}

func (s CreditStatus) Validate() error {
	allowed := []CreditStatus{
		CreditStatusActive,
		CreditStatusConsumed,
		CreditStatusExpired,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid credit status").
			WithHint("Invalid credit status").
			WithReportableDetails(map[string]any{
				"status":  s,
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CreditReason explains why a credit was granted.
type CreditReason string

const (
	CreditReasonOverchargeCompensation CreditReason = "overcharge_compensation"
)
