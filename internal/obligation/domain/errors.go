package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidFranchise = errors.New("invalid_franchise")
	ErrInvalidKind      = errors.New("invalid_obligation_kind")
	ErrInvalidPeriod    = errors.New("invalid_period")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrPaymentRequired  = errors.New("payment_required")
	ErrNotFound         = errors.New("obligation_not_found")
)

// PaymentRequiredError is returned while the entry fee is not paid.
type PaymentRequiredError struct {
	State    EntryFeeState
	Amount   decimal.Decimal
	Currency string
}

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("payment_required: entry fee %s (%s %s)", e.State, e.Amount.StringFixed(2), e.Currency)
}

func (e *PaymentRequiredError) Is(target error) bool {
	return target == ErrPaymentRequired
}
