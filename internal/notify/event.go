package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderEvent struct {
	OrderID       int64
	CustomerName  string
	CustomerEmail string
	PaymentMethod string
	Street        string
	City          string
	Zip           string
	Items         []EventItem
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	CouponCode    string
	CreatedAt     time.Time
}

type EventItem struct {
	ProductID   int64
	Quantity    int
	UnitPrice   decimal.Decimal
	VariantInfo string
}

func (e OrderEvent) Address() string {
	return fmt.Sprintf("%s, %s %s", e.Street, e.City, e.Zip)
}

// Summary renders the event as plain text for email bodies and chat messages.
func (e OrderEvent) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d\n", e.OrderID)
	fmt.Fprintf(&b, "Customer: %s <%s>\n", e.CustomerName, e.CustomerEmail)
	fmt.Fprintf(&b, "Ship to: %s\n", e.Address())
	fmt.Fprintf(&b, "Payment: %s\n\n", e.PaymentMethod)

	for _, it := range e.Items {
		line := fmt.Sprintf("- product %d x%d @ %s", it.ProductID, it.Quantity, it.UnitPrice.StringFixed(2))
		if it.VariantInfo != "" {
			line += " (" + it.VariantInfo + ")"
		}
		b.WriteString(line + "\n")
	}

	fmt.Fprintf(&b, "\nSubtotal: %s\n", e.Subtotal.StringFixed(2))
	if e.CouponCode != "" {
		fmt.Fprintf(&b, "Discount (%s): -%s\n", e.CouponCode, e.Discount.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: %s\n", e.Total.StringFixed(2))
	return b.String()
}
