package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	compliancedomain "github.com/smallbiznis/franchisehub/internal/compliance/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var refreshedColumns = []string{
	"total_revenue",
	"required_purchase",
	"free_purchase",
	"actual_purchase",
	"compliance_percentage",
	"is_compliant",
	"updated_at",
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) compliancedomain.Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, snapshot *compliancedomain.Snapshot) (*compliancedomain.Snapshot, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "franchise_id"},
			{Name: "period_start"},
			{Name: "granularity"},
		},
		DoUpdates: clause.AssignmentColumns(refreshedColumns),
	}).Create(snapshot).Error
	if err != nil {
		return nil, err
	}

	stored, err := r.FindByKey(ctx, snapshot.FranchiseID, snapshot.PeriodStart, snapshot.Granularity)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return stored, nil
}

func (r *repository) FindByKey(ctx context.Context, franchiseID snowflake.ID, periodStart time.Time, granularity compliancedomain.Granularity) (*compliancedomain.Snapshot, error) {
	var item compliancedomain.Snapshot
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, franchise_id, period_start, granularity, total_revenue, required_purchase,
			free_purchase, actual_purchase, compliance_percentage, is_compliant, notes, created_at, updated_at
		 FROM compliance_snapshots
		 WHERE franchise_id = ? AND period_start = ? AND granularity = ?`,
		franchiseID,
		periodStart.UTC(),
		granularity,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context, filter compliancedomain.ListFilter) ([]compliancedomain.Snapshot, error) {
	var items []compliancedomain.Snapshot
	stmt := r.db.WithContext(ctx).Model(&compliancedomain.Snapshot{})
	if filter.FranchiseID != 0 {
		stmt = stmt.Where("franchise_id = ?", filter.FranchiseID)
	}
	if !filter.PeriodStart.IsZero() {
		stmt = stmt.Where("period_start = ?", filter.PeriodStart.UTC())
	}
	if filter.Granularity != "" {
		stmt = stmt.Where("granularity = ?", filter.Granularity)
	}
	if err := stmt.Order("franchise_id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
