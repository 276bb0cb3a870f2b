package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-vpn-subscription/internal/domain"
	"telegram-vpn-subscription/internal/domain/model"
	"telegram-vpn-subscription/internal/domain/ports/repository"
	"telegram-vpn-subscription/internal/infra/logging"
	"telegram-vpn-subscription/internal/infra/metrics"
)

// PromoUseCase redeems promo codes.
type PromoUseCase interface {
	// Redeem applies code to the user exactly once.
	// A refused redemption is a result with OK=false and a nil error. A non-nil
	// error means the outcome is unknown (domain.ErrRedemptionUndetermined) or
	// the input was malformed (domain.ErrInvalidArgument); neither is a refusal.
	Redeem(ctx context.Context, userID int64, code string) (model.RedemptionResult, error)
}

// PromoOptions tunes the redemption transaction.
type PromoOptions struct {
	// MaxAttempts bounds how many times the whole sequence runs when the
	// store reports a transaction conflict. Values below 1 mean 1.
	MaxAttempts int
	// InitialBackoff is the first wait between attempts; it grows exponentially.
	InitialBackoff time.Duration
	TxOptions      pgx.TxOptions
	Dev            bool
	Now            func() time.Time
}

var _ PromoUseCase = (*promoUC)(nil)

type promoUC struct {
	promos repository.PromoCodeRepository
	users  repository.UserPromoRepository
	audit  repository.RedemptionLogRepository
	tx     repository.TransactionManager
	opts   PromoOptions
	log    *zerolog.Logger
}

// errRefused rolls back the redemption tx when a business check fails.
var errRefused = errors.New("redemption refused")

// NewPromoUseCase wires the redemption flow. audit and logger may be nil.
func NewPromoUseCase(
	promos repository.PromoCodeRepository,
	users repository.UserPromoRepository,
	audit repository.RedemptionLogRepository,
	tx repository.TransactionManager,
	opts PromoOptions,
	logger *zerolog.Logger,
) PromoUseCase {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 20 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &promoUC{
		promos: promos,
		users:  users,
		audit:  audit,
		tx:     tx,
		opts:   opts,
		log:    logger,
	}
}

func (u *promoUC) Redeem(ctx context.Context, userID int64, code string) (model.RedemptionResult, error) {
	l := logging.With(logging.WithUserID(ctx, userID), u.log)
	defer logging.TraceDuration(l, "PromoUC.Redeem")()

	if userID <= 0 {
		return model.RedemptionResult{}, domain.ErrInvalidArgument
	}
	code = model.NormalizePromoCode(code)
	if code == "" {
		metrics.IncPromoRedemption(string(model.ReasonCodeNotFound))
		return model.Refused(model.ReasonCodeNotFound), nil
	}

	var (
		result  model.RedemptionResult
		attempt int
	)
	op := func() error {
		attempt++
		if attempt > 1 {
			metrics.IncPromoRedemptionRetry()
			l.Debug().Int("attempt", attempt).Msg("retrying redemption after tx conflict")
		}
		res, err := u.redeemOnce(ctx, userID, code)
		if err != nil {
			if errors.Is(err, domain.ErrTxConflict) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = res
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = u.opts.InitialBackoff
	eb.MaxElapsedTime = 0 // bounded by attempts
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(u.opts.MaxAttempts-1)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		metrics.IncPromoRedemptionError()
		l.Error().Err(err).Int("attempts", attempt).
			Str("code", logging.Redact(code, u.opts.Dev)).
			Msg("redemption outcome undetermined")
		return model.RedemptionResult{}, fmt.Errorf("%w: %w", domain.ErrRedemptionUndetermined, err)
	}

	metrics.IncPromoRedemption(string(result.Reason))
	ev := l.Debug()
	if result.OK {
		ev = l.Info()
	}
	ev.Str("code", logging.Redact(code, u.opts.Dev)).
		Str("reason", string(result.Reason)).
		Int("discount_percent", result.DiscountPercent).
		Msg("promo redemption")
	return result, nil
}

// redeemOnce runs one validate-and-write sequence in a single transaction.
// The promo row is locked first, then the user row is written through a
// guarded update, so concurrent attempts always lock in the same order.
func (u *promoUC) redeemOnce(ctx context.Context, userID int64, code string) (model.RedemptionResult, error) {
	var result model.RedemptionResult
	refuse := func(reason model.RedemptionReason) error {
		result = model.Refused(reason)
		return errRefused
	}

	err := u.tx.WithTx(ctx, u.opts.TxOptions, func(ctx context.Context, tx repository.Tx) error {
		promo, err := u.promos.LockByCode(ctx, tx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return refuse(model.ReasonCodeNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock promo: %w", err)
		}

		now := u.opts.Now()
		if reason := promo.Check(now); reason != model.ReasonOK {
			return refuse(reason)
		}

		current, err := u.users.GetActiveCode(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("get active promo: %w", err)
		}
		if current != "" {
			return refuse(model.ReasonAlreadyHasCode)
		}

		if err := u.users.SetActiveCode(ctx, tx, userID, code); err != nil {
			if errors.Is(err, domain.ErrPromoAlreadySet) {
				return refuse(model.ReasonAlreadyHasCode)
			}
			return fmt.Errorf("set active promo: %w", err)
		}

		if err := u.promos.MarkUsed(ctx, tx, code); err != nil {
			switch {
			case errors.Is(err, domain.ErrPromoLimitReached):
				return refuse(model.ReasonLimitExceeded)
			case errors.Is(err, domain.ErrNotFound):
				return refuse(model.ReasonCodeNotFound)
			}
			return fmt.Errorf("mark promo used: %w", err)
		}

		if u.audit != nil {
			entry := &model.PromoRedemption{
				UserID:          userID,
				Code:            code,
				DiscountPercent: promo.DiscountPercent,
				RedeemedAt:      now,
			}
			if err := u.audit.Append(ctx, tx, entry); err != nil {
				return err
			}
		}

		result = model.Redeemed(promo.DiscountPercent)
		return nil
	})

	if errors.Is(err, errRefused) {
		return result, nil
	}
	if err != nil {
		return model.RedemptionResult{}, err
	}
	return result, nil
}
