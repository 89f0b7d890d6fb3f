package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	purchasedomain "github.com/smallbiznis/franchisehub/internal/purchase/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) purchasedomain.Repository {
	return &repository{db: db}
}

func NewPurchaseSource(repo purchasedomain.Repository) purchasedomain.PurchaseSource {
	return repo
}

func (r *repository) SumInternalValue(ctx context.Context, franchiseID snowflake.ID, start, end time.Time) (decimal.Decimal, error) {
	if !end.After(start) {
		return decimal.Zero, purchasedomain.ErrInvalidWindow
	}

	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(quantity * unit_price), 0) AS total
		 FROM purchase_records
		 WHERE franchise_id = ? AND sourced_internally = ? AND created_at >= ? AND created_at < ?`,
		franchiseID,
		true,
		start.UTC(),
		end.UTC(),
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

func (r *repository) CreateBatch(ctx context.Context, records []purchasedomain.PurchaseRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			err := tx.Exec(
				`INSERT INTO purchase_records (
					id, franchise_id, product_ref, quantity, unit_price, sourced_internally, order_ref, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				record.ID,
				record.FranchiseID,
				record.ProductRef,
				record.Quantity,
				record.UnitPrice,
				record.SourcedInternally,
				record.OrderRef,
				record.CreatedAt,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) ListByPeriod(ctx context.Context, franchiseID snowflake.ID, start, end time.Time) ([]purchasedomain.PurchaseRecord, error) {
	var items []purchasedomain.PurchaseRecord
	err := r.db.WithContext(ctx).
		Model(&purchasedomain.PurchaseRecord{}).
		Where("franchise_id = ? AND created_at >= ? AND created_at < ?", franchiseID, start.UTC(), end.UTC()).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
