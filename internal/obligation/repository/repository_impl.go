package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	obligationdomain "github.com/smallbiznis/franchisehub/internal/obligation/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const obligationColumns = `id, franchise_id, kind, period_key, amount, currency, status, description, created_at, updated_at, paid_at`

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) obligationdomain.Repository {
	return &repository{db: db}
}

func NewObligationSink(repo obligationdomain.Repository) obligationdomain.ObligationSink {
	return repo
}

var obligationKey = []clause.Column{
	{Name: "franchise_id"},
	{Name: "kind"},
	{Name: "period_key"},
}

// pendingUpsert refreshes the amount of a pending row on key conflict.
// Settled rows keep their amount.
func pendingUpsert(o *obligationdomain.PaymentObligation) clause.OnConflict {
	pendingOnly := func(column string, value any) clause.Expr {
		return gorm.Expr(
			"CASE WHEN payment_obligations.status = ? THEN ? ELSE payment_obligations."+column+" END",
			obligationdomain.StatusPending,
			value,
		)
	}
	return clause.OnConflict{
		Columns: obligationKey,
		DoUpdates: clause.Assignments(map[string]any{
			"amount":     pendingOnly("amount", o.Amount),
			"updated_at": pendingOnly("updated_at", o.UpdatedAt),
		}),
	}
}

var keepExisting = clause.OnConflict{Columns: obligationKey, DoNothing: true}

func (r *repository) UpsertPending(ctx context.Context, o *obligationdomain.PaymentObligation) (*obligationdomain.PaymentObligation, bool, error) {
	row := *o
	row.Status = obligationdomain.StatusPending
	err := r.db.WithContext(ctx).Clauses(pendingUpsert(o)).Create(&row).Error
	if err != nil {
		return nil, false, err
	}

	stored, err := r.FindByKey(ctx, o.FranchiseID, o.Kind, o.PeriodKey)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, obligationdomain.ErrNotFound
	}
	return stored, stored.ID == o.ID, nil
}

func (r *repository) EnsureEntryFee(ctx context.Context, o *obligationdomain.PaymentObligation) (*obligationdomain.PaymentObligation, bool, error) {
	row := *o
	row.Kind = obligationdomain.KindEntryFee
	row.PeriodKey = obligationdomain.LifetimeKey
	row.Status = obligationdomain.StatusPending
	err := r.db.WithContext(ctx).Clauses(keepExisting).Create(&row).Error
	if err != nil {
		return nil, false, err
	}

	stored, err := r.FindByKey(ctx, o.FranchiseID, obligationdomain.KindEntryFee, obligationdomain.LifetimeKey)
	if err != nil || stored == nil {
		return stored, false, err
	}
	if stored.ID == o.ID {
		return stored, true, nil
	}
	if stored.Status != obligationdomain.StatusCancelled {
		return stored, false, nil
	}

	res := r.db.WithContext(ctx).Exec(
		`UPDATE payment_obligations
		 SET status = ?, amount = ?, currency = ?, description = ?, updated_at = ?, paid_at = NULL
		 WHERE id = ? AND status = ?`,
		obligationdomain.StatusPending,
		o.Amount,
		o.Currency,
		o.Description,
		o.UpdatedAt,
		stored.ID,
		obligationdomain.StatusCancelled,
	)
	if res.Error != nil {
		return nil, false, res.Error
	}

	reopened, err := r.FindByID(ctx, stored.ID)
	if err != nil {
		return nil, false, err
	}
	return reopened, res.RowsAffected > 0, nil
}

func (r *repository) FindByKey(ctx context.Context, franchiseID snowflake.ID, kind obligationdomain.Kind, periodKey string) (*obligationdomain.PaymentObligation, error) {
	var item obligationdomain.PaymentObligation
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+obligationColumns+`
		 FROM payment_obligations
		 WHERE franchise_id = ? AND kind = ? AND period_key = ?`,
		franchiseID,
		kind,
		periodKey,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*obligationdomain.PaymentObligation, error) {
	var item obligationdomain.PaymentObligation
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+obligationColumns+`
		 FROM payment_obligations
		 WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repository) MarkPaid(ctx context.Context, id snowflake.ID, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE payment_obligations
		 SET status = ?, paid_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		obligationdomain.StatusPaid,
		paidAt,
		paidAt,
		id,
		obligationdomain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListByFranchise(ctx context.Context, franchiseID snowflake.ID) ([]obligationdomain.PaymentObligation, error) {
	var items []obligationdomain.PaymentObligation
	err := r.db.WithContext(ctx).
		Model(&obligationdomain.PaymentObligation{}).
		Where("franchise_id = ?", franchiseID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
