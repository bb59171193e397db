package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// statusRank orders the forward path; Cancelled sits outside it.
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

var allStatuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// ParseStatus matches s case-insensitively against the known statuses.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range allStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition allows forward moves along Pending → Processing → Shipped →
// Delivered, and Cancelled from any non-terminal status.
func CanTransition(from, to Status) error {
	if from == to {
		return ErrStatusUnchanged
	}
	if from.Terminal() {
		return ErrTerminalStatus
	}
	if to == StatusCancelled {
		return nil
	}
	if statusRank[to] <= statusRank[from] {
		return ErrInvalidTransition
	}
	return nil
}

const PaymentWhatsApp = "whatsapp"

type Order struct {
	ID            int64           `json:"id"`
	UserID        *int64          `json:"user_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	Street        string          `json:"street"`
	City          string          `json:"city"`
	Zip           string          `json:"zip"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	CouponCode    *string         `json:"coupon_code"`
	Status        Status          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []*Item         `json:"items"`
}

// Item is a line item snapshot; it is never rewritten after the order is
// created.
type Item struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VariantID   *int64          `json:"variant_id"`
	VariantInfo *string         `json:"variant_info"`
}

func (i *Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type ItemInput struct {
	ProductID   int64
	Quantity    int
	UnitPrice   decimal.Decimal
	VariantID   *int64
	VariantInfo string
}

type CreateInput struct {
	UserID        *int64
	CustomerName  string
	CustomerEmail string
	PaymentMethod string
	Street        string
	City          string
	Zip           string
	Items         []ItemInput
	Total         decimal.Decimal
	CouponCode    string
}

type CreateResult struct {
	OrderID     int64
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	RedirectURL string
}
