package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Check reports why c cannot be applied at now, or nil when it is inside
// its usage window. The minimum purchase is checked separately by Evaluate.
func Check(c *Coupon, now time.Time) error {
	if !c.Active {
		return ErrCouponInactive
	}
	if c.ValidUntil != nil && c.ValidUntil.Before(now) {
		return ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ErrCouponExhausted
	}
	return nil
}

// Evaluate applies every coupon constraint and returns the discount for
// orderTotal.
func Evaluate(c *Coupon, orderTotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if err := Check(c, now); err != nil {
		return decimal.Zero, err
	}
	if c.MinPurchase != nil && orderTotal.LessThan(*c.MinPurchase) {
		return decimal.Zero, ErrMinPurchase.WithDetails(map[string]any{
			"minPurchase": c.MinPurchase.StringFixed(2),
		})
	}
	return Discount(c, orderTotal), nil
}

// Discount computes the raw discount. Percentage discounts are capped by
// MaxDiscount; fixed discounts are returned as-is and may exceed the total.
func Discount(c *Coupon, orderTotal decimal.Decimal) decimal.Decimal {
	switch c.DiscountType {
	case DiscountPercentage:
		amount := orderTotal.Mul(c.DiscountValue).Div(hundred).Round(2)
		if c.MaxDiscount != nil && amount.GreaterThan(*c.MaxDiscount) {
			amount = *c.MaxDiscount
		}
		if amount.IsNegative() {
			return decimal.Zero
		}
		return amount
	case DiscountFixed:
		return c.DiscountValue
	default:
		return decimal.Zero
	}
}
