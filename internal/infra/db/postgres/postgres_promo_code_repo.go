package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-vpn-subscription/internal/domain"
	"telegram-vpn-subscription/internal/domain/model"
	"telegram-vpn-subscription/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.PromoCodeRepository = (*promoCodeRepo)(nil)

type promoCodeRepo struct {
	pool *pgxpool.Pool
}

func NewPromoCodeRepo(pool *pgxpool.Pool) repository.PromoCodeRepository {
	return &promoCodeRepo{pool: pool}
}

const promoColumns = `code, discount_percent, active, expires_at, max_uses, used_count, created_at, updated_at`

func (r *promoCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.PromoCode, error) {
	const q = `SELECT ` + promoColumns + ` FROM promo_codes WHERE code = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanPromo(row)
}

// LockByCode takes a row lock on the code for the rest of the transaction.
// Concurrent redemptions of the same code queue up here.
func (r *promoCodeRepo) LockByCode(ctx context.Context, tx repository.Tx, code string) (*model.PromoCode, error) {
	t, err := requireTx(tx)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + promoColumns + ` FROM promo_codes WHERE code = $1 FOR UPDATE;`
	return scanPromo(t.QueryRow(ctx, q, code))
}

func (r *promoCodeRepo) MarkUsed(ctx context.Context, tx repository.Tx, code string) error {
	const q = `
UPDATE promo_codes
   SET used_count = used_count + 1, updated_at = NOW()
 WHERE code = $1
   AND (max_uses IS NULL OR used_count < max_uses);`
	tag, err := execSQL(ctx, r.pool, tx, q, code)
	if err != nil {
		return mapErr("mark promo used", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Nothing updated: tell a missing code from an exhausted one.
	row, err := pickRow(ctx, r.pool, tx, `SELECT 1 FROM promo_codes WHERE code = $1;`, code)
	if err != nil {
		return err
	}
	var one int
	if err := row.Scan(&one); err != nil {
		return mapErr("check promo exists", err)
	}
	return domain.ErrPromoLimitReached
}

// Create is insert-only, so two admins racing on one code cannot overwrite each other.
func (r *promoCodeRepo) Create(ctx context.Context, tx repository.Tx, p *model.PromoCode) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	const q = `
INSERT INTO promo_codes (code, discount_percent, active, expires_at, max_uses, used_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
ON CONFLICT (code) DO NOTHING
RETURNING used_count;`
	row, err := pickRow(ctx, r.pool, tx, q,
		p.Code, p.DiscountPercent, p.Active, p.ExpiresAt, p.MaxUses, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if err := row.Scan(&p.UsedCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAlreadyExists
		}
		return mapErr("create promo", err)
	}
	return nil
}

// Save inserts a new code or updates the definition of an existing one.
// The usage counter is owned by redemption and is only read back here.
func (r *promoCodeRepo) Save(ctx context.Context, tx repository.Tx, p *model.PromoCode) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()

	const q = `
INSERT INTO promo_codes (code, discount_percent, active, expires_at, max_uses, used_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
ON CONFLICT (code) DO UPDATE SET
  discount_percent = EXCLUDED.discount_percent,
  active           = EXCLUDED.active,
  expires_at       = EXCLUDED.expires_at,
  max_uses         = EXCLUDED.max_uses,
  updated_at       = EXCLUDED.updated_at
RETURNING used_count, created_at;`
	row, err := pickRow(ctx, r.pool, tx, q,
		p.Code, p.DiscountPercent, p.Active, p.ExpiresAt, p.MaxUses, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if err := row.Scan(&p.UsedCount, &p.CreatedAt); err != nil {
		return mapErr("save promo", err)
	}
	return nil
}

func (r *promoCodeRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.PromoCode, error) {
	if limit <= 0 || offset < 0 {
		return nil, domain.ErrInvalidArgument
	}
	const q = `SELECT ` + promoColumns + ` FROM promo_codes ORDER BY created_at DESC, code ASC LIMIT $1 OFFSET $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, limit, offset)
	if err != nil {
		return nil, mapErr("list promos", err)
	}
	defer rows.Close()

	var out []*model.PromoCode
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanPromo(row pgx.Row) (*model.PromoCode, error) {
	var p model.PromoCode
	err := row.Scan(&p.Code, &p.DiscountPercent, &p.Active, &p.ExpiresAt, &p.MaxUses, &p.UsedCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapErr("scan promo", err)
	}
	return &p, nil
}
