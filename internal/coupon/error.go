package coupon

import "watchshop-be/internal/apperr"

var (
	// -- Validation & Input --
	ErrCodeRequired      = apperr.Validation("coupon code is required")
	ErrInvalidOrderTotal = apperr.Validation("order total must not be negative")
	ErrInvalidType       = apperr.Validation("discount type must be percentage or fixed")
	ErrInvalidValue      = apperr.Validation("discount value must be positive")
	ErrPercentageTooHigh = apperr.Validation("percentage discount cannot exceed 100")
	ErrMaxDiscountFixed  = apperr.Validation("max discount applies to percentage coupons only")
	ErrInvalidBound      = apperr.Validation("minimum purchase and max discount must not be negative")
	ErrInvalidUsageLimit = apperr.Validation("usage limit must be at least 1")
	ErrExpiryInPast      = apperr.Validation("valid until must be in the future")
	ErrMinPurchase       = apperr.Validation("minimum purchase not met")

	// -- Resource State --
	ErrCouponNotFound    = apperr.NotFound("coupon not found")
	ErrCouponInactive    = apperr.NotFound("coupon is not active")
	ErrCouponExpired     = apperr.NotFound("coupon has expired")
	ErrCouponExhausted   = apperr.NotFound("coupon usage limit reached")
	ErrCouponUnavailable = apperr.NotFound("coupon not found or usage limit reached")
	ErrOrderNotFound     = apperr.NotFound("order not found")
	ErrCodeExists        = apperr.Conflict("coupon code already exists")
)
