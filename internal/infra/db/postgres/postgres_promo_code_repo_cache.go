package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-vpn-subscription/internal/domain/model"
	"telegram-vpn-subscription/internal/domain/ports/repository"
	"telegram-vpn-subscription/internal/infra/logging"
	"telegram-vpn-subscription/internal/infra/metrics"
	red "telegram-vpn-subscription/internal/infra/redis"
)

const promoCacheName = "promo"

var _ repository.PromoCodeRepository = (*promoRepoCacheDecorator)(nil)

// promoRepoCacheDecorator caches non-transactional FindByCode reads.
// Anything carrying a tx goes straight to the database, so redemption always
// validates against the locked row. Writes made inside a transaction drop the
// cached entry only after COMMIT; otherwise a concurrent reader could refill
// it with the pre-commit row. Staleness of cached reads is bounded by ttl.
type promoRepoCacheDecorator struct {
	inner repository.PromoCodeRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewPromoRepoCacheDecorator(inner repository.PromoCodeRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.PromoCodeRepository {
	if logger == nil {
		logger = logging.Nop()
	}
	return &promoRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   logger,
	}
}

func (d *promoRepoCacheDecorator) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.PromoCode, error) {
	if tx != nil {
		return d.inner.FindByCode(ctx, tx, code)
	}

	key := red.PromoCacheKey(code)
	var cached model.PromoCode
	switch err := red.GetJSON(ctx, d.cache, key, &cached); {
	case err == nil:
		metrics.ObserveCacheLookup(promoCacheName, true)
		return &cached, nil
	case errors.Is(err, red.Nil):
	default:
		metrics.IncCacheError(promoCacheName, "get")
		d.log.Warn().Err(err).Str("key", key).Msg("promo cache read failed")
	}

	metrics.ObserveCacheLookup(promoCacheName, false)
	p, err := d.inner.FindByCode(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if err := red.SetJSON(ctx, d.cache, key, p, d.ttl); err != nil {
		metrics.IncCacheError(promoCacheName, "set")
		d.log.Warn().Err(err).Str("key", key).Msg("promo cache write failed")
	}
	return p, nil
}

func (d *promoRepoCacheDecorator) LockByCode(ctx context.Context, tx repository.Tx, code string) (*model.PromoCode, error) {
	return d.inner.LockByCode(ctx, tx, code)
}

func (d *promoRepoCacheDecorator) MarkUsed(ctx context.Context, tx repository.Tx, code string) error {
	err := d.inner.MarkUsed(ctx, tx, code)
	if err == nil {
		d.invalidate(ctx, tx, code)
	}
	return err
}

// Create never invalidates: absent codes are not cached.
func (d *promoRepoCacheDecorator) Create(ctx context.Context, tx repository.Tx, p *model.PromoCode) error {
	return d.inner.Create(ctx, tx, p)
}

func (d *promoRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.PromoCode) error {
	err := d.inner.Save(ctx, tx, p)
	if err == nil {
		d.invalidate(ctx, tx, p.Code)
	}
	return err
}

func (d *promoRepoCacheDecorator) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.PromoCode, error) {
	return d.inner.List(ctx, tx, offset, limit)
}

// invalidate drops the entry now, or after COMMIT when tx belongs to a managed transaction.
func (d *promoRepoCacheDecorator) invalidate(ctx context.Context, tx repository.Tx, code string) {
	drop := func(ctx context.Context) {
		if err := d.cache.Del(ctx, red.PromoCacheKey(code)); err != nil {
			metrics.IncCacheError(promoCacheName, "del")
			d.log.Warn().Err(err).Str("code", code).Msg("promo cache invalidation failed")
		}
	}
	if tx != nil && repository.AfterCommit(ctx, drop) {
		return
	}
	drop(ctx)
}
