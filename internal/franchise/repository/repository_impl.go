package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	franchisedomain "github.com/smallbiznis/franchisehub/internal/franchise/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) franchisedomain.Reader {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*franchisedomain.Franchise, error) {
	var item franchisedomain.Franchise
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, name, is_active, created_at
		 FROM franchises
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

func (r *repository) ListActive(ctx context.Context) ([]franchisedomain.Franchise, error) {
	var items []franchisedomain.Franchise
	err := r.db.WithContext(ctx).
		Model(&franchisedomain.Franchise{}).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
