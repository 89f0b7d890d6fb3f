package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidFranchise   = errors.New("invalid_franchise")
	ErrInvalidGranularity = errors.New("invalid_granularity")
	ErrInvalidPeriod      = errors.New("invalid_period")
	ErrInvalidOrderValue  = errors.New("invalid_order_value")
	ErrFranchiseNotFound  = errors.New("franchise_not_found")
	ErrComplianceBlocked  = errors.New("compliance_violation")
	ErrPersistence        = errors.New("persistence_failure")
)

// ViolationError rejects an order that would leave the period below the
// mandatory internal-purchase ratio.
type ViolationError struct {
	CurrentPercentage   decimal.Decimal
	ProjectedPercentage decimal.Decimal
	RequiredPercentage  decimal.Decimal
	Shortfall           decimal.Decimal
	Currency            string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("compliance_violation: projected %s%% below required %s%% (shortfall %s %s)",
		e.ProjectedPercentage.StringFixed(2),
		e.RequiredPercentage.StringFixed(2),
		e.Shortfall.StringFixed(2),
		e.Currency,
	)
}

func (e *ViolationError) Is(target error) bool {
	return target == ErrComplianceBlocked
}
