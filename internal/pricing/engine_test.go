package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roxosabor/storefront-api/internal/coupon"
	"github.com/roxosabor/storefront-api/internal/pricing"
)

func TestComputeWithoutCoupon(t *testing.T) {
	items := []pricing.Item{
		{Qty: 1, UnitPrice: 2690},
		{Qty: 1, UnitPrice: 2310},
	}
	got := pricing.Compute(items, nil, 799)
	require.Equal(t, pricing.Summary{
		Subtotal:    5000,
		Discount:    0,
		DeliveryFee: 799,
		Total:       5799,
	}, got)
}

func TestComputePercentDiscount(t *testing.T) {
	items := []pricing.Item{{Qty: 2, UnitPrice: 2500}}
	d := &coupon.Discount{Code: "ROXO10", Kind: coupon.KindPercent, Value: 10}
	got := pricing.Compute(items, d, 799)
	require.EqualValues(t, 5000, got.Subtotal)
	require.EqualValues(t, 500, got.Discount)
	require.EqualValues(t, 799, got.DeliveryFee)
	require.EqualValues(t, 5299, got.Total)
}

func TestComputeFreeShipping(t *testing.T) {
	items := []pricing.Item{{Qty: 1, UnitPrice: 5490}}
	d := &coupon.Discount{Code: "FRETEGRATIS", Kind: coupon.KindFreeShipping}
	got := pricing.Compute(items, d, 1099)
	require.EqualValues(t, 5490, got.Subtotal)
	require.EqualValues(t, 0, got.Discount)
	require.EqualValues(t, 0, got.DeliveryFee)
	require.EqualValues(t, 5490, got.Total)
}

func TestComputeMessageCouponChangesNothing(t *testing.T) {
	items := []pricing.Item{{Qty: 1, UnitPrice: 2690}}
	d := &coupon.Discount{Code: "ADICIONAL", Kind: coupon.KindMessage}
	got := pricing.Compute(items, d, 499)
	require.EqualValues(t, 0, got.Discount)
	require.EqualValues(t, 499, got.DeliveryFee)
	require.EqualValues(t, 3189, got.Total)
}

func TestComputeTotalFlooredAtZero(t *testing.T) {
	items := []pricing.Item{{Qty: 1, UnitPrice: 100}}
	d := &coupon.Discount{Code: "ALL", Kind: coupon.KindPercent, Value: 100}
	got := pricing.Compute(items, d, 0)
	require.EqualValues(t, 100, got.Discount)
	require.EqualValues(t, 0, got.Total)
}

func TestComputeIgnoresNonPositiveQty(t *testing.T) {
	items := []pricing.Item{
		{Qty: 0, UnitPrice: 1000},
		{Qty: -2, UnitPrice: 1000},
		{Qty: 1, UnitPrice: 1000},
	}
	got := pricing.Compute(items, nil, 0)
	require.EqualValues(t, 1000, got.Subtotal)
}

func TestComputeNegativeFeeClamped(t *testing.T) {
	got := pricing.Compute([]pricing.Item{{Qty: 1, UnitPrice: 1000}}, nil, -50)
	require.EqualValues(t, 0, got.DeliveryFee)
	require.EqualValues(t, 1000, got.Total)
}

func TestComputeEmptyCart(t *testing.T) {
	got := pricing.Compute(nil, nil, 799)
	require.EqualValues(t, 0, got.Subtotal)
	require.EqualValues(t, 799, got.Total)
}
