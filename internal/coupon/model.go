package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

type Coupon struct {
	ID            int64            `json:"id"`
	Code          string           `json:"code"`
	DiscountType  DiscountType     `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MinPurchase   *decimal.Decimal `json:"min_purchase"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	UsageLimit    *int             `json:"usage_limit"`
	UsedCount     int              `json:"used_count"`
	ValidUntil    *time.Time       `json:"valid_until"`
	Active        bool             `json:"active"`
	CreatedAt     time.Time        `json:"created_at"`
}

type CreateInput struct {
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	MinPurchase   *decimal.Decimal
	MaxDiscount   *decimal.Decimal
	UsageLimit    *int
	ValidUntil    *time.Time
}

// Validation is the outcome of a successful coupon check.
type Validation struct {
	Coupon         *Coupon
	DiscountAmount decimal.Decimal
}
