package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Evaluator computes and persists compliance snapshots.
type Evaluator interface {
	Evaluate(ctx context.Context, req EvaluateRequest) (*Snapshot, error)
	EvaluateAll(ctx context.Context, req CheckAllRequest) (*CheckAllResult, error)
}

// OrderGate is consulted synchronously before an order is committed.
type OrderGate interface {
	CheckOrder(ctx context.Context, req OrderCheckRequest) (*OrderCheckResult, error)
}

// Reporter rolls snapshots up into network-wide statistics.
type Reporter interface {
	Summarize(ctx context.Context, filter ReportFilter) (*Summary, error)
	Overview(ctx context.Context, filter ReportFilter) (*Overview, error)
}

type EvaluateRequest struct {
	FranchiseID snowflake.ID
	PeriodStart time.Time
	Granularity Granularity
}

func (r EvaluateRequest) Validate() error {
	if r.FranchiseID == 0 {
		return ErrInvalidFranchise
	}
	if r.PeriodStart.IsZero() {
		return ErrInvalidPeriod
	}
	if !r.Granularity.Valid() {
		return ErrInvalidGranularity
	}
	return nil
}

type CheckAllRequest struct {
	Month       int         `json:"month"`
	Year        int         `json:"year"`
	Granularity Granularity `json:"period"`
}

type CheckAllResult struct {
	Period    Period
	Snapshots []Snapshot
	Count     int
}

type OrderCheckRequest struct {
	FranchiseID           snowflake.ID
	ProposedOrderValue    decimal.Decimal
	ProposedInternalValue decimal.Decimal
}

func (r OrderCheckRequest) Validate() error {
	if r.FranchiseID == 0 {
		return ErrInvalidFranchise
	}
	if r.ProposedOrderValue.IsNegative() || r.ProposedInternalValue.IsNegative() {
		return ErrInvalidOrderValue
	}
	if r.ProposedInternalValue.GreaterThan(r.ProposedOrderValue) {
		return ErrInvalidOrderValue
	}
	return nil
}

// FullyInternal reports whether the whole order is sourced from the parent.
func (r OrderCheckRequest) FullyInternal() bool {
	return r.ProposedOrderValue.Equal(r.ProposedInternalValue)
}

type OrderCheckResult struct {
	Admitted            bool
	Period              Period
	Revenue             decimal.Decimal
	Actual              decimal.Decimal
	CurrentPercentage   decimal.Decimal
	ProjectedPercentage decimal.Decimal
	RequiredPercentage  decimal.Decimal
}

type ReportFilter struct {
	Granularity Granularity
	PeriodStart time.Time
}

type Summary struct {
	Period            Period
	FranchiseCount    int
	CompliantCount    int
	NonCompliantCount int
	ComplianceRate    decimal.Decimal
	TotalRevenue      decimal.Decimal
	TotalRequired     decimal.Decimal
	TotalFree         decimal.Decimal
	TotalActual       decimal.Decimal
	Details           []Snapshot
}

type Overview struct {
	Summary    Summary
	Franchises []FranchiseOverview
}

type FranchiseOverview struct {
	FranchiseID   snowflake.ID
	FranchiseName string
	Snapshot      Snapshot
	Sales         []SalesLine
	Purchases     []PurchaseLine
}

type SalesLine struct {
	PeriodLabel string          `json:"period_label"`
	Revenue     decimal.Decimal `json:"revenue"`
	OrderCount  int64           `json:"order_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

type PurchaseLine struct {
	ProductRef        string          `json:"product_ref"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Value             decimal.Decimal `json:"value"`
	SourcedInternally bool            `json:"sourced_internally"`
	CreatedAt         time.Time       `json:"created_at"`
}
