package model

import (
	"strings"
	"time"

	"telegram-vpn-subscription/internal/domain"
)

// PromoCode is a one-time discount code a user can attach to their account.
type PromoCode struct {
	Code            string
	DiscountPercent int
	Active          bool
	ExpiresAt       *time.Time // nil means no expiry
	MaxUses         *int       // nil means unlimited
	UsedCount       int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewPromoCode validates and constructs an active promo code with no usages.
// A non-positive maxUses is treated as unlimited.
func NewPromoCode(code string, discountPercent int, expiresAt *time.Time, maxUses *int) (*PromoCode, error) {
	code = NormalizePromoCode(code)
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	if discountPercent < 0 || discountPercent > 100 {
		return nil, domain.ErrInvalidArgument
	}
	if maxUses != nil && *maxUses <= 0 {
		maxUses = nil
	}
	now := time.Now()
	return &PromoCode{
		Code:            code,
		DiscountPercent: discountPercent,
		Active:          true,
		ExpiresAt:       expiresAt,
		MaxUses:         maxUses,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// NormalizePromoCode trims user input and upper-cases it; codes are stored in that form.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Expired reports whether the code expired strictly before now.
func (p *PromoCode) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

// Exhausted reports whether the usage ceiling has been reached.
func (p *PromoCode) Exhausted() bool {
	return p.MaxUses != nil && p.UsedCount >= *p.MaxUses
}

// Check runs the code-level redemption checks in order: active, expiry, usage limit.
// It returns ReasonOK when the code itself is still redeemable at now.
func (p *PromoCode) Check(now time.Time) RedemptionReason {
	switch {
	case !p.Active:
		return ReasonCodeInactive
	case p.Expired(now):
		return ReasonCodeExpired
	case p.Exhausted():
		return ReasonLimitExceeded
	}
	return ReasonOK
}

// RemainingUses returns how many redemptions are left, or -1 when unlimited.
func (p *PromoCode) RemainingUses() int {
	if p.MaxUses == nil {
		return -1
	}
	if left := *p.MaxUses - p.UsedCount; left > 0 {
		return left
	}
	return 0
}
