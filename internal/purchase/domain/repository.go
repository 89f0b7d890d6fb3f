package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PurchaseSource values internally sourced purchases in [start, end).
type PurchaseSource interface {
	SumInternalValue(ctx context.Context, franchiseID snowflake.ID, start, end time.Time) (decimal.Decimal, error)
}

type Repository interface {
	PurchaseSource
	CreateBatch(ctx context.Context, records []PurchaseRecord) error
	ListByPeriod(ctx context.Context, franchiseID snowflake.ID, start, end time.Time) ([]PurchaseRecord, error)
}
