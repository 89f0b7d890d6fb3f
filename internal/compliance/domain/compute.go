package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Figures is the arithmetic of one compliance evaluation.
type Figures struct {
	Revenue    decimal.Decimal
	Required   decimal.Decimal
	Free       decimal.Decimal
	Actual     decimal.Decimal
	Percentage decimal.Decimal
	Compliant  bool
}

// Compute derives the verdict for revenue and internally sourced value under
// ratio (0.80 for the 80/20 rule). The percentage is truncated to two decimals
// for display; the verdict compares the exact values so 79.999% never passes.
func Compute(revenue, actual, ratio decimal.Decimal) Figures {
	required := revenue.Mul(ratio).Round(2)
	f := Figures{
		Revenue:    revenue,
		Required:   required,
		Free:       revenue.Sub(required),
		Actual:     actual,
		Percentage: decimal.Zero,
	}
	if !revenue.IsPositive() {
		return f
	}
	f.Percentage = Percentage(actual, revenue)
	f.Compliant = actual.Mul(hundred).GreaterThanOrEqual(ratio.Mul(hundred).Mul(revenue))
	return f
}

// Percentage returns part/whole×100 truncated to 2dp, or 0 when whole is 0.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).DivRound(whole, 16).Truncate(2)
}
