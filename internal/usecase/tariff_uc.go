package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"telegram-vpn-subscription/internal/domain/model"
	"telegram-vpn-subscription/internal/domain/ports/adapter"
)

// TariffOption is one purchasable plan with its resolved discount and price.
type TariffOption struct {
	Months          int
	Devices         int
	DiscountPercent int
	Price           decimal.Decimal
}

// TariffFilter selects which device counts are offered.
type TariffFilter struct {
	OneDevice  bool
	TwoDevices bool
}

// TariffUseCase lists the plans a user can buy, priced for that user.
type TariffUseCase interface {
	Quote(ctx context.Context, userID int64, filter TariffFilter) ([]TariffOption, error)
}

var _ TariffUseCase = (*tariffUC)(nil)

type tariffUC struct {
	discounts DiscountUseCase
	prices    adapter.PriceCalculator
}

func NewTariffUseCase(discounts DiscountUseCase, prices adapter.PriceCalculator) TariffUseCase {
	return &tariffUC{discounts: discounts, prices: prices}
}

// Quote returns one-device options first, then two-device ones, each in schedule order.
func (t *tariffUC) Quote(ctx context.Context, userID int64, filter TariffFilter) ([]TariffOption, error) {
	promo, err := t.discounts.CurrentPromoPercent(ctx, userID)
	if err != nil {
		return nil, err
	}

	var devices []int
	if filter.OneDevice {
		devices = append(devices, 1)
	}
	if filter.TwoDevices {
		devices = append(devices, 2)
	}

	months := model.ScheduleDurations()
	out := make([]TariffOption, 0, len(devices)*len(months))
	for _, d := range devices {
		for _, m := range months {
			disc := t.discounts.EffectiveDiscount(m, promo)
			price, err := t.prices.ComputePrice(m, d, disc)
			if err != nil {
				return nil, fmt.Errorf("price %d months x %d devices: %w", m, d, err)
			}
			out = append(out, TariffOption{Months: m, Devices: d, DiscountPercent: disc, Price: price})
		}
	}
	return out, nil
}
