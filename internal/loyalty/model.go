package loyalty

import (
	"time"

	"github.com/shopspring/decimal"
)

type HistoryType string

const (
	HistoryEarned   HistoryType = "earned"
	HistoryRedeemed HistoryType = "redeemed"
)

// MinRedemption is the smallest number of points that can be redeemed at once.
const MinRedemption = 100

// RedemptionValidity is how long a minted loyalty coupon stays valid.
const RedemptionValidity = 30 * 24 * time.Hour

type HistoryEntry struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	Points      int         `json:"points"`
	Type        HistoryType `json:"type"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Balance struct {
	Points  int             `json:"points"`
	History []*HistoryEntry `json:"history"`
}

type Redemption struct {
	CouponCode string
	Amount     decimal.Decimal
	ValidUntil time.Time
}
