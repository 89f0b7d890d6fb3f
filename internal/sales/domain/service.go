package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*Response, error)
}

type RecordRequest struct {
	PeriodLabel string          `json:"period_label"`
	Revenue     decimal.Decimal `json:"revenue"`
	OrderCount  int64           `json:"order_count"`
}

type Response struct {
	ID          string          `json:"id"`
	FranchiseID string          `json:"franchise_id"`
	PeriodLabel string          `json:"period_label"`
	Revenue     decimal.Decimal `json:"revenue"`
	OrderCount  int64           `json:"order_count"`
	CreatedAt   time.Time       `json:"created_at"`
}
