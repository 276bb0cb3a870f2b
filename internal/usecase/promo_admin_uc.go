package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-vpn-subscription/internal/domain"
	"telegram-vpn-subscription/internal/domain/model"
	"telegram-vpn-subscription/internal/domain/ports/repository"
	"telegram-vpn-subscription/internal/infra/logging"
)

// PromoCodeInput describes a new promo code. An empty Code is generated.
type PromoCodeInput struct {
	Code            string
	DiscountPercent int
	ExpiresAt       *time.Time
	MaxUses         *int
}

// PromoAdminUseCase is the administrative side of promo codes.
// It edits definitions only; usage counters belong to redemption.
type PromoAdminUseCase interface {
	Create(ctx context.Context, in PromoCodeInput) (*model.PromoCode, error)
	SetActive(ctx context.Context, code string, active bool) (*model.PromoCode, error)
	Get(ctx context.Context, code string) (*model.PromoCode, error)
	List(ctx context.Context, offset, limit int) ([]*model.PromoCode, error)
}

var _ PromoAdminUseCase = (*promoAdminUC)(nil)

type promoAdminUC struct {
	promos repository.PromoCodeRepository
	tx     repository.TransactionManager
	log    *zerolog.Logger
}

func NewPromoAdminUseCase(promos repository.PromoCodeRepository, tx repository.TransactionManager, logger *zerolog.Logger) PromoAdminUseCase {
	if logger == nil {
		logger = logging.Nop()
	}
	return &promoAdminUC{promos: promos, tx: tx, log: logger}
}

// Create returns domain.ErrAlreadyExists if the code is taken.
func (a *promoAdminUC) Create(ctx context.Context, in PromoCodeInput) (*model.PromoCode, error) {
	code := in.Code
	if model.NormalizePromoCode(code) == "" {
		gen, err := generatePromoCode()
		if err != nil {
			return nil, fmt.Errorf("generate promo code: %w", err)
		}
		code = gen
	}

	p, err := model.NewPromoCode(code, in.DiscountPercent, in.ExpiresAt, in.MaxUses)
	if err != nil {
		return nil, err
	}
	if err := a.promos.Create(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	logging.With(ctx, a.log).Info().
		Str("code", p.Code).
		Int("discount_percent", p.DiscountPercent).
		Msg("promo code created")
	return p, nil
}

// SetActive toggles a code under a row lock so the rest of the definition is
// written back exactly as stored. Setting the current value is a no-op.
func (a *promoAdminUC) SetActive(ctx context.Context, code string, active bool) (*model.PromoCode, error) {
	code = model.NormalizePromoCode(code)
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}

	var (
		out     *model.PromoCode
		changed bool
	)
	err := a.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := a.promos.LockByCode(ctx, tx, code)
		if err != nil {
			return err // domain.ErrNotFound for an unknown code
		}
		out = p
		if p.Active == active {
			return nil
		}
		p.Active = active
		changed = true
		return a.promos.Save(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		logging.With(ctx, a.log).Info().Str("code", out.Code).Bool("active", active).Msg("promo code toggled")
	}
	return out, nil
}

func (a *promoAdminUC) Get(ctx context.Context, code string) (*model.PromoCode, error) {
	code = model.NormalizePromoCode(code)
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	return a.promos.FindByCode(ctx, repository.NoTX, code)
}

func (a *promoAdminUC) List(ctx context.Context, offset, limit int) ([]*model.PromoCode, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 || offset < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return a.promos.List(ctx, repository.NoTX, offset, limit)
}
