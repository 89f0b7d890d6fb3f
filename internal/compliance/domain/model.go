package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Snapshot is the persisted verdict for one (franchise, period start, granularity).
type Snapshot struct {
	ID                   snowflake.ID    `gorm:"primaryKey"`
	FranchiseID          snowflake.ID    `gorm:"column:franchise_id;not null;uniqueIndex:ux_compliance_snapshots_period,priority:1"`
	PeriodStart          time.Time       `gorm:"column:period_start;not null;uniqueIndex:ux_compliance_snapshots_period,priority:2"`
	Granularity          Granularity     `gorm:"type:varchar(16);not null;uniqueIndex:ux_compliance_snapshots_period,priority:3"`
	TotalRevenue         decimal.Decimal `gorm:"column:total_revenue;type:numeric(18,2);not null"`
	RequiredPurchase     decimal.Decimal `gorm:"column:required_purchase;type:numeric(18,2);not null"`
	FreePurchase         decimal.Decimal `gorm:"column:free_purchase;type:numeric(18,2);not null"`
	ActualPurchase       decimal.Decimal `gorm:"column:actual_purchase;type:numeric(18,2);not null"`
	CompliancePercentage decimal.Decimal `gorm:"column:compliance_percentage;type:numeric(7,2);not null"`
	IsCompliant          bool            `gorm:"column:is_compliant;not null"`
	Notes                string          `gorm:"type:text"`
	CreatedAt            time.Time       `gorm:"not null"`
	UpdatedAt            time.Time       `gorm:"not null"`
}

func (Snapshot) TableName() string { return "compliance_snapshots" }

func (s *Snapshot) Period() Period {
	p, _ := PeriodFor(s.PeriodStart, s.Granularity)
	return p
}
