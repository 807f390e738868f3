package pricing

import "github.com/roxosabor/storefront-api/internal/coupon"

// Money represents a monetary value stored in minor units.
type Money = int64

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal    Money
	Discount    Money
	DeliveryFee Money
	Total       Money
}

// Compute calculates order totals given the cart lines, the active discount
// (nil when no coupon is applied) and the quoted delivery fee.
//
// A percent discount is taken from the subtotal without clamping; only the
// final total is floored at zero. A free-shipping discount zeroes the delivery
// fee and contributes no discount amount. Informational coupons change nothing.
func Compute(items []Item, discount *coupon.Discount, deliveryFee Money) Summary {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}

	var discountAmount Money
	fee := deliveryFee
	if fee < 0 {
		fee = 0
	}
	if discount != nil {
		switch discount.Kind {
		case coupon.KindPercent:
			discountAmount = subtotal * discount.Value / 100
		case coupon.KindFreeShipping:
			fee = 0
		}
	}

	total := subtotal - discountAmount + fee
	if total < 0 {
		total = 0
	}
	return Summary{
		Subtotal:    subtotal,
		Discount:    discountAmount,
		DeliveryFee: fee,
		Total:       total,
	}
}
