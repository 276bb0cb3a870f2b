package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"telegram-vpn-subscription/internal/domain/model"
	"telegram-vpn-subscription/internal/domain/ports/repository"
)

var _ repository.RedemptionLogRepository = (*redemptionLogRepo)(nil)

type redemptionLogRepo struct {
	pool *pgxpool.Pool
}

func NewRedemptionLogRepo(pool *pgxpool.Pool) repository.RedemptionLogRepository {
	return &redemptionLogRepo{pool: pool}
}

func (r *redemptionLogRepo) Append(ctx context.Context, tx repository.Tx, e *model.PromoRedemption) error {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.RedeemedAt.IsZero() {
		e.RedeemedAt = time.Now()
	}
	const q = `
INSERT INTO promo_redemptions (id, user_id, code, discount_percent, redeemed_at)
VALUES ($1, $2, $3, $4, $5);`
	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.UserID, e.Code, e.DiscountPercent, e.RedeemedAt)
	return mapErr("append redemption", err)
}
