package loyalty

import (
	"fmt"

	"watchshop-be/internal/apperr"
)

var (
	ErrInvalidUser        = apperr.Validation("user id is required")
	ErrBelowMinimum       = apperr.Validation(fmt.Sprintf("minimum redemption is %d points", MinRedemption))
	ErrUserNotFound       = apperr.NotFound("user not found")
	ErrInsufficientPoints = apperr.Conflict("insufficient points")
	ErrCouponCollision    = apperr.Conflict("could not mint a unique coupon code, try again")
)
