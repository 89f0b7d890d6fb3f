package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// SalesRecord is one reported sales period for a franchise.
// Rows are append-only; the compliance engine never mutates them.
type SalesRecord struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	FranchiseID snowflake.ID    `gorm:"column:franchise_id;not null;uniqueIndex:ux_sales_records_period,priority:1"`
	PeriodLabel string          `gorm:"column:period_label;type:varchar(32);not null;uniqueIndex:ux_sales_records_period,priority:2"`
	Revenue     decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	OrderCount  int64           `gorm:"column:order_count;not null;default:0"`
	CreatedAt   time.Time       `gorm:"not null;index"`
}

func (SalesRecord) TableName() string { return "sales_records" }

func (r *SalesRecord) Validate() error {
	if r.FranchiseID == 0 {
		return ErrInvalidFranchise
	}
	if r.PeriodLabel == "" {
		return ErrInvalidPeriodLabel
	}
	if r.Revenue.IsNegative() {
		return ErrInvalidRevenue
	}
	if r.OrderCount < 0 {
		return ErrInvalidOrderCount
	}
	return nil
}

// RevenueTotal is the aggregate of sales records in a window.
type RevenueTotal struct {
	Revenue decimal.Decimal
	Count   int64
}
