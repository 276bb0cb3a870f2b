package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"telegram-vpn-subscription/internal/domain"
	"telegram-vpn-subscription/internal/domain/ports/adapter"
)

var _ adapter.PriceCalculator = (*TableCalculator)(nil)

var hundred = decimal.NewFromInt(100)

// TableCalculator prices a plan from a per-device-count monthly price:
// monthly * months * (100 - discount) / 100, rounded to whole currency units.
type TableCalculator struct {
	monthly map[int]decimal.Decimal
}

// NewTableCalculator parses the configured monthly prices (device count -> amount).
func NewTableCalculator(monthly map[int]string) (*TableCalculator, error) {
	if len(monthly) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	t := &TableCalculator{monthly: make(map[int]decimal.Decimal, len(monthly))}
	for devices, raw := range monthly {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("pricing.monthly[%d]: %w", devices, err)
		}
		if devices <= 0 || amount.IsNegative() {
			return nil, fmt.Errorf("pricing.monthly[%d]: %w", devices, domain.ErrInvalidArgument)
		}
		t.monthly[devices] = amount
	}
	return t, nil
}

func (t *TableCalculator) ComputePrice(months, devices, discountPercent int) (decimal.Decimal, error) {
	base, ok := t.monthly[devices]
	if !ok || months <= 0 || discountPercent < 0 || discountPercent > 100 {
		return decimal.Zero, domain.ErrInvalidArgument
	}
	full := base.Mul(decimal.NewFromInt(int64(months)))
	pay := hundred.Sub(decimal.NewFromInt(int64(discountPercent)))
	return full.Mul(pay).Div(hundred).Round(0), nil
}
