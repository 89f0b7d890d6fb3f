package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// RevenueSource sums recorded sales for a half-open window [start, end).
// An empty window yields a zero total, never an error.
type RevenueSource interface {
	SumRevenue(ctx context.Context, franchiseID snowflake.ID, start, end time.Time) (RevenueTotal, error)
}

type Repository interface {
	RevenueSource
	Create(ctx context.Context, record *SalesRecord) error
	ListByPeriod(ctx context.Context, franchiseID snowflake.ID, start, end time.Time) ([]SalesRecord, error)
}
