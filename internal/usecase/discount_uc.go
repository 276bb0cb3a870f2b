package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-vpn-subscription/internal/domain"
	"telegram-vpn-subscription/internal/domain/model"
	"telegram-vpn-subscription/internal/domain/ports/repository"
	"telegram-vpn-subscription/internal/infra/logging"
)

// DiscountUseCase resolves which discount applies to a purchase.
type DiscountUseCase interface {
	// EffectiveDiscount is max(base discount for months, promoPercent). Discounts never stack.
	EffectiveDiscount(months, promoPercent int) int

	// CurrentPromoPercent returns the discount of the user's redeemed code if
	// the code is still usable right now, else 0. The assignment itself is
	// never modified, so a dead code keeps resolving to 0.
	CurrentPromoPercent(ctx context.Context, userID int64) (int, error)
}

var _ DiscountUseCase = (*discountUC)(nil)

type discountUC struct {
	promos repository.PromoCodeRepository
	users  repository.UserPromoRepository
	now    func() time.Time
	log    *zerolog.Logger
}

func NewDiscountUseCase(promos repository.PromoCodeRepository, users repository.UserPromoRepository, logger *zerolog.Logger) DiscountUseCase {
	if logger == nil {
		logger = logging.Nop()
	}
	return &discountUC{promos: promos, users: users, now: time.Now, log: logger}
}

func (d *discountUC) EffectiveDiscount(months, promoPercent int) int {
	return model.CombineDiscounts(months, promoPercent)
}

func (d *discountUC) CurrentPromoPercent(ctx context.Context, userID int64) (int, error) {
	code, err := d.users.GetActiveCode(ctx, repository.NoTX, userID)
	if err != nil {
		return 0, fmt.Errorf("get active promo: %w", err)
	}
	if code == "" {
		return 0, nil
	}

	promo, err := d.promos.FindByCode(ctx, repository.NoTX, code)
	if errors.Is(err, domain.ErrNotFound) {
		logging.With(ctx, d.log).Debug().Int64("user_id", userID).Msg("assigned promo code no longer exists")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find promo: %w", err)
	}

	if reason := promo.Check(d.now()); reason != model.ReasonOK {
		return 0, nil
	}
	return promo.DiscountPercent, nil
}
