package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	compliancedomain "github.com/smallbiznis/franchisehub/internal/compliance/domain"
)

type EntryFeeState string

const (
	EntryFeeUnpaid  EntryFeeState = "unpaid"
	EntryFeePending EntryFeeState = "pending"
	EntryFeePaid    EntryFeeState = "paid"
)

// EntryFeeGate guards protected operations until the entry fee is paid.
type EntryFeeGate interface {
	Check(ctx context.Context, franchiseID snowflake.ID) (*EntryFeeStatus, error)
	Require(ctx context.Context, franchiseID snowflake.ID) error
	Ensure(ctx context.Context, franchiseID snowflake.ID) (*EntryFeeStatus, error)
}

// Calculator derives recurring obligations from revenue.
type Calculator interface {
	Derive(ctx context.Context, req DeriveRequest) (*DeriveResult, error)
}

// Service is the payment-confirmation entry point used by the external
// payment collaborator and the admin surface.
type Service interface {
	MarkPaid(ctx context.Context, id snowflake.ID) (*PaymentObligation, error)
	List(ctx context.Context, franchiseID snowflake.ID) ([]PaymentObligation, error)
}

type EntryFeeStatus struct {
	State    EntryFeeState   `json:"state"`
	Exists   bool            `json:"exists"`
	Paid     bool            `json:"paid"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type DeriveRequest struct {
	FranchiseID snowflake.ID
	Period      compliancedomain.Period
	// RevenueToDate overrides the aggregated revenue when set.
	RevenueToDate *decimal.Decimal
}

func (r DeriveRequest) Validate() error {
	if r.FranchiseID == 0 {
		return ErrInvalidFranchise
	}
	if r.Period.Start.IsZero() || !r.Period.Granularity.Valid() {
		return ErrInvalidPeriod
	}
	if r.RevenueToDate != nil && r.RevenueToDate.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

type DeriveResult struct {
	FranchiseID       snowflake.ID
	PeriodKey         string
	Revenue           decimal.Decimal
	Commission        decimal.Decimal
	MandatoryPurchase decimal.Decimal
	Currency          string
	CommissionCreated bool
	MandatoryCreated  bool
	Obligations       []PaymentObligation
}
