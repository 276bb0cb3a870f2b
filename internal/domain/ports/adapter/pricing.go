package adapter

import "github.com/shopspring/decimal"

// PriceCalculator converts a plan selection into a displayable amount.
// Currency handling belongs to the implementation.
type PriceCalculator interface {
	ComputePrice(months, devices, discountPercent int) (decimal.Decimal, error)
}
