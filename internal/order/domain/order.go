package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidFranchise = errors.New("invalid_franchise")
	ErrEmptyOrder       = errors.New("empty_order")
	ErrInvalidLine      = errors.New("invalid_order_line")
)

type Service interface {
	Place(ctx context.Context, req PlaceOrderRequest) (*Response, error)
}

type PlaceOrderRequest struct {
	Reference string      `json:"reference"`
	Lines     []OrderLine `json:"lines"`
}

// OrderLine is one product in an order. Internal lines come from the
// parent organization's warehouses.
type OrderLine struct {
	ProductRef string          `json:"product_ref"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Internal   bool            `json:"internal"`
}

func (l OrderLine) Validate() error {
	if strings.TrimSpace(l.ProductRef) == "" {
		return ErrInvalidLine
	}
	if !l.Quantity.IsPositive() || l.UnitPrice.IsNegative() {
		return ErrInvalidLine
	}
	return nil
}

func (l OrderLine) Value() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Totals returns the order value and its internally sourced portion.
func (r PlaceOrderRequest) Totals() (total, internal decimal.Decimal) {
	total, internal = decimal.Zero, decimal.Zero
	for _, line := range r.Lines {
		value := line.Value()
		total = total.Add(value)
		if line.Internal {
			internal = internal.Add(value)
		}
	}
	return total.Round(2), internal.Round(2)
}

type Response struct {
	Reference           string          `json:"reference"`
	TotalValue          decimal.Decimal `json:"total_value"`
	InternalValue       decimal.Decimal `json:"internal_value"`
	LineCount           int             `json:"line_count"`
	CurrentPercentage   decimal.Decimal `json:"current_percentage"`
	ProjectedPercentage decimal.Decimal `json:"projected_percentage"`
}
