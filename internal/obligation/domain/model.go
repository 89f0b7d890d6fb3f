package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindEntryFee          Kind = "entry_fee"
	KindCommission        Kind = "commission"
	KindMandatoryPurchase Kind = "mandatory_purchase"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// LifetimeKey is the period key of one-time obligations.
const LifetimeKey = "lifetime"

// PaymentObligation is unique per (franchise, kind, period key).
type PaymentObligation struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	FranchiseID snowflake.ID    `gorm:"column:franchise_id;not null;uniqueIndex:ux_payment_obligations_key,priority:1"`
	Kind        Kind            `gorm:"type:varchar(32);not null;uniqueIndex:ux_payment_obligations_key,priority:2"`
	PeriodKey   string          `gorm:"column:period_key;type:varchar(32);not null;uniqueIndex:ux_payment_obligations_key,priority:3"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Currency    string          `gorm:"type:text;not null"`
	Status      Status          `gorm:"type:text;not null"`
	Description string          `gorm:"type:text"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
	PaidAt      *time.Time      `gorm:"column:paid_at"`
}

func (PaymentObligation) TableName() string { return "payment_obligations" }

func (o *PaymentObligation) Validate() error {
	if o.FranchiseID == 0 {
		return ErrInvalidFranchise
	}
	switch o.Kind {
	case KindEntryFee, KindCommission, KindMandatoryPurchase:
	default:
		return ErrInvalidKind
	}
	if o.PeriodKey == "" {
		return ErrInvalidPeriod
	}
	if o.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
