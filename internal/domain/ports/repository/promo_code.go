package repository

import (
	"context"

	"telegram-vpn-subscription/internal/domain/model"
)

// PromoCodeRepository is the port for promo code definitions and usage counters.
type PromoCodeRepository interface {
	// FindByCode is a plain read; returns domain.ErrNotFound if absent.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.PromoCode, error)
	// LockByCode reads the row and holds a row lock until tx ends. Requires a tx.
	LockByCode(ctx context.Context, tx Tx, code string) (*model.PromoCode, error)
	// MarkUsed increments used_count by one unless the ceiling is reached.
	// Returns domain.ErrNotFound or domain.ErrPromoLimitReached when nothing was written.
	MarkUsed(ctx context.Context, tx Tx, code string) error
	// Create inserts a new code. Returns domain.ErrAlreadyExists if the code is taken.
	Create(ctx context.Context, tx Tx, p *model.PromoCode) error
	// Save creates a code or updates its definition. used_count is never overwritten.
	Save(ctx context.Context, tx Tx, p *model.PromoCode) error
	// List returns codes, newest first.
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.PromoCode, error)
}
