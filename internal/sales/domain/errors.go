package domain

import "errors"

var (
	ErrInvalidFranchise   = errors.New("invalid_franchise")
	ErrInvalidPeriodLabel = errors.New("invalid_period_label")
	ErrInvalidRevenue     = errors.New("invalid_revenue")
	ErrInvalidOrderCount  = errors.New("invalid_order_count")
	ErrInvalidWindow      = errors.New("invalid_window")
	ErrDuplicatePeriod    = errors.New("duplicate_sales_period")
)
