package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-vpn-subscription/internal/domain"
	"telegram-vpn-subscription/internal/domain/ports/repository"
)

var _ repository.UserPromoRepository = (*userPromoRepo)(nil)

type userPromoRepo struct {
	pool *pgxpool.Pool
}

func NewUserPromoRepo(pool *pgxpool.Pool) repository.UserPromoRepository {
	return &userPromoRepo{pool: pool}
}

func (r *userPromoRepo) GetActiveCode(ctx context.Context, tx repository.Tx, userID int64) (string, error) {
	const q = `SELECT COALESCE(active_promocode, '') FROM user_promos WHERE user_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return "", err
	}
	var code string
	if err := row.Scan(&code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", mapErr("get active promo", err)
	}
	return code, nil
}

// SetActiveCode is a guarded write: the conflict branch only fires while the
// stored code is empty, so two racing writers cannot both succeed. The row is
// created when the registration flow has not inserted it yet.
func (r *userPromoRepo) SetActiveCode(ctx context.Context, tx repository.Tx, userID int64, code string) error {
	const q = `
INSERT INTO user_promos (user_id, active_promocode, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE SET
  active_promocode = EXCLUDED.active_promocode,
  updated_at       = EXCLUDED.updated_at
WHERE user_promos.active_promocode IS NULL OR user_promos.active_promocode = ''
RETURNING user_id;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, code)
	if err != nil {
		return err
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrPromoAlreadySet
		}
		return mapErr("set active promo", err)
	}
	return nil
}
