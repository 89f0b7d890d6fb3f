package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	// Upsert inserts the snapshot or refreshes the figures of the existing row
	// for the same (franchise, period start, granularity). Notes and CreatedAt
	// are kept from the first insert. The stored row is returned.
	Upsert(ctx context.Context, snapshot *Snapshot) (*Snapshot, error)
	FindByKey(ctx context.Context, franchiseID snowflake.ID, periodStart time.Time, granularity Granularity) (*Snapshot, error)
	List(ctx context.Context, filter ListFilter) ([]Snapshot, error)
}

type ListFilter struct {
	FranchiseID snowflake.ID
	PeriodStart time.Time
	Granularity Granularity
}
