package model

import "time"

// RedemptionReason is the business outcome of a redemption attempt.
type RedemptionReason string

const (
	ReasonOK             RedemptionReason = "OK"
	ReasonCodeNotFound   RedemptionReason = "CodeNotFound"
	ReasonCodeInactive   RedemptionReason = "CodeInactive"
	ReasonCodeExpired    RedemptionReason = "CodeExpired"
	ReasonLimitExceeded  RedemptionReason = "LimitExceeded"
	ReasonAlreadyHasCode RedemptionReason = "AlreadyHasCode"
)

// RedemptionResult is returned for every attempt whose outcome is known.
type RedemptionResult struct {
	OK              bool
	DiscountPercent int
	Reason          RedemptionReason
}

// Refused builds a negative result for the given reason.
func Refused(reason RedemptionReason) RedemptionResult {
	return RedemptionResult{OK: false, DiscountPercent: 0, Reason: reason}
}

// Redeemed builds a successful result carrying the code's discount.
func Redeemed(discountPercent int) RedemptionResult {
	return RedemptionResult{OK: true, DiscountPercent: discountPercent, Reason: ReasonOK}
}

// PromoRedemption is an audit entry written together with a successful redemption.
type PromoRedemption struct {
	ID              string
	UserID          int64
	Code            string
	DiscountPercent int
	RedeemedAt      time.Time
}
