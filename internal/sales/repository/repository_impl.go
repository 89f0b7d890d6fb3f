package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	salesdomain "github.com/smallbiznis/franchisehub/internal/sales/domain"
	"github.com/smallbiznis/franchisehub/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) salesdomain.Repository {
	return &repository{db: db}
}

// NewRevenueSource exposes the repository through the narrow read port.
func NewRevenueSource(repo salesdomain.Repository) salesdomain.RevenueSource {
	return repo
}

func (r *repository) SumRevenue(ctx context.Context, franchiseID snowflake.ID, start, end time.Time) (salesdomain.RevenueTotal, error) {
	var total salesdomain.RevenueTotal
	if !end.After(start) {
		return total, salesdomain.ErrInvalidWindow
	}

	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(revenue), 0) AS revenue, COUNT(*) AS count
		 FROM sales_records
		 WHERE franchise_id = ? AND created_at >= ? AND created_at < ?`,
		franchiseID,
		start.UTC(),
		end.UTC(),
	).Scan(&total).Error
	if err != nil {
		return salesdomain.RevenueTotal{}, err
	}
	// sqlite sums numeric columns as floats
	total.Revenue = total.Revenue.Round(2)
	return total, nil
}

func (r *repository) Create(ctx context.Context, record *salesdomain.SalesRecord) error {
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO sales_records (
			id, franchise_id, period_label, revenue, order_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.FranchiseID,
		record.PeriodLabel,
		record.Revenue,
		record.OrderCount,
		record.CreatedAt,
	).Error
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return salesdomain.ErrDuplicatePeriod
		}
		return err
	}
	return nil
}

func (r *repository) ListByPeriod(ctx context.Context, franchiseID snowflake.ID, start, end time.Time) ([]salesdomain.SalesRecord, error) {
	var items []salesdomain.SalesRecord
	err := r.db.WithContext(ctx).
		Model(&salesdomain.SalesRecord{}).
		Where("franchise_id = ? AND created_at >= ? AND created_at < ?", franchiseID, start.UTC(), end.UTC()).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
