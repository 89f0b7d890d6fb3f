package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PurchaseRecord is one inventory purchase line. SourcedInternally marks
// lines bought from the parent organization's warehouses.
type PurchaseRecord struct {
	ID                snowflake.ID    `gorm:"primaryKey"`
	FranchiseID       snowflake.ID    `gorm:"column:franchise_id;not null;index:ix_purchase_records_window,priority:1"`
	ProductRef        string          `gorm:"column:product_ref;type:text;not null"`
	Quantity          decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	UnitPrice         decimal.Decimal `gorm:"column:unit_price;type:numeric(18,2);not null"`
	SourcedInternally bool            `gorm:"column:sourced_internally;not null;default:false"`
	OrderRef          string          `gorm:"column:order_ref;type:text"`
	CreatedAt         time.Time       `gorm:"not null;index:ix_purchase_records_window,priority:2"`
}

func (PurchaseRecord) TableName() string { return "purchase_records" }

// Value is quantity × unit price.
func (r PurchaseRecord) Value() decimal.Decimal {
	return r.Quantity.Mul(r.UnitPrice)
}

func (r *PurchaseRecord) Validate() error {
	if r.FranchiseID == 0 {
		return ErrInvalidFranchise
	}
	if r.ProductRef == "" {
		return ErrInvalidProduct
	}
	if !r.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if r.UnitPrice.IsNegative() {
		return ErrInvalidUnitPrice
	}
	return nil
}
