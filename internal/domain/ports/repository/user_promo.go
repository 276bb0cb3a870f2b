package repository

import (
	"context"

	"telegram-vpn-subscription/internal/domain/model"
)

// UserPromoRepository is the port for the user -> active promo code assignment.
type UserPromoRepository interface {
	// GetActiveCode returns "" when the user has no code (or no row yet).
	GetActiveCode(ctx context.Context, tx Tx, userID int64) (string, error)
	// SetActiveCode assigns code only if the user has no code yet.
	// Returns domain.ErrPromoAlreadySet when a code is already present.
	SetActiveCode(ctx context.Context, tx Tx, userID int64, code string) error
}

// RedemptionLogRepository stores the audit trail of successful redemptions.
type RedemptionLogRepository interface {
	Append(ctx context.Context, tx Tx, r *model.PromoRedemption) error
}
