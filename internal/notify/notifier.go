package notify

import (
	"context"

	"github.com/roxosabor/storefront-api/internal/pricing"
)

// Order is the snapshot of an approved order relayed to the store operators.
type Order struct {
	PaymentID     string
	Reference     string
	CustomerName  string
	CustomerPhone string
	Address       string
	Items         string
	Note          string
	CouponCode    string
	Subtotal      pricing.Money
	Discount      pricing.Money
	DeliveryFee   pricing.Money
	Total         pricing.Money
	PaymentMethod string
	Installments  int
}

// Notifier relays approved orders to whoever prepares them.
type Notifier interface {
	OrderApproved(ctx context.Context, o Order) error
}

// Nop drops every notification. Used when no relay is configured.
type Nop struct{}

func (Nop) OrderApproved(context.Context, Order) error { return nil }
