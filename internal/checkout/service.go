package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roxosabor/storefront-api/internal/cart"
	"github.com/roxosabor/storefront-api/internal/coupon"
	"github.com/roxosabor/storefront-api/internal/payment"
	"github.com/roxosabor/storefront-api/internal/pricing"
	"github.com/roxosabor/storefront-api/internal/shipping"
)

var (
	// ErrEmptyCart indicates the cart has no lines to check out.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrBelowMinimum indicates the subtotal is under the store minimum.
	ErrBelowMinimum = errors.New("order below minimum")
)

// Customer is the buyer data collected at checkout.
type Customer struct {
	Name         string `json:"name" validate:"required,min=2"`
	WhatsApp     string `json:"whatsapp" validate:"required,min=8"`
	Email        string `json:"email" validate:"omitempty,email"`
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	City         string `json:"city" validate:"required"`
	Complement   string `json:"complement"`
	ZipCode      string `json:"zipCode"`
}

// Request is a checkout submission for an existing cart.
type Request struct {
	CartID   string   `json:"cartId" validate:"required"`
	Customer Customer `json:"customer"`
	Note     string   `json:"note"`
}

// Result carries the hosted checkout handle plus the priced order.
type Result struct {
	Reference    string
	CheckoutURL  string
	PreferenceID string
	DistanceKm   float64
	Summary      pricing.Summary
}

// Service aggregates cart, shipping and payment into a single checkout step.
// The delivery fee is always re-quoted server side; client-sent totals are
// never trusted.
type Service struct {
	Carts    *cart.Service
	Shipping *shipping.Service
	Provider payment.Provider
	Logger   zerolog.Logger

	MinOrderTotal      pricing.Money
	Currency           string
	PublicBaseURL      string
	NotificationSecret string
	StatementDesc      string
	Now                func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Checkout prices the cart, quotes delivery for the customer address and opens
// a hosted payment preference for the final total.
func (s *Service) Checkout(ctx context.Context, req Request) (Result, error) {
	if s == nil || s.Carts == nil || s.Shipping == nil || s.Provider == nil {
		return Result{}, errors.New("checkout service not configured")
	}

	c, err := s.Carts.Get(ctx, req.CartID)
	if err != nil {
		return Result{}, err
	}
	if len(c.Lines) == 0 {
		return Result{}, ErrEmptyCart
	}

	addr := shipping.Address{
		Street:       req.Customer.Street,
		Number:       req.Customer.Number,
		Neighborhood: req.Customer.Neighborhood,
		City:         req.Customer.City,
		Complement:   req.Customer.Complement,
	}
	quote, err := s.Shipping.Quote(ctx, addr)
	if err != nil {
		return Result{}, err
	}
	if !quote.Calculated {
		return Result{}, shipping.ErrGeocodeUnavailable
	}

	discount := s.Carts.Discount(c)
	items := cart.PricingItems(c)
	summary := pricing.Compute(items, discount, quote.Fee)
	if summary.Subtotal < s.MinOrderTotal {
		return Result{}, fmt.Errorf("%w: subtotal %d below %d", ErrBelowMinimum, summary.Subtotal, s.MinOrderTotal)
	}

	reference := fmt.Sprintf("pedido_%d_%s", s.now().UnixMilli(), uuid.NewString()[:8])
	pref, err := s.Provider.CreatePreference(ctx, payment.PreferenceRequest{
		ExternalReference: reference,
		Title:             orderTitle(c),
		Amount:            summary.Total,
		Currency:          s.Currency,
		Payer: payment.Payer{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.WhatsApp,
			Street:  req.Customer.Street,
			Number:  req.Customer.Number,
			ZipCode: req.Customer.ZipCode,
		},
		BackBaseURL:         s.PublicBaseURL,
		NotificationURL:     s.notificationURL(),
		StatementDescriptor: s.StatementDesc,
		Metadata:            s.metadata(reference, c, req, addr, quote, discount, summary),
	})
	if err != nil {
		return Result{}, err
	}

	s.Logger.Info().
		Str("reference", reference).
		Str("cart_id", c.ID).
		Int64("total", summary.Total).
		Float64("distance_km", quote.DistanceKm).
		Msg("checkout preference created")

	return Result{
		Reference:    reference,
		CheckoutURL:  pref.InitPoint,
		PreferenceID: pref.ID,
		DistanceKm:   quote.DistanceKm,
		Summary:      summary,
	}, nil
}

func (s *Service) notificationURL() string {
	base := strings.TrimRight(strings.TrimSpace(s.PublicBaseURL), "/")
	if base == "" {
		return ""
	}
	url := base + "/api/v1/payments/webhook"
	if s.NotificationSecret != "" {
		url += "?secret=" + s.NotificationSecret
	}
	return url
}

func (s *Service) metadata(reference string, c cart.Cart, req Request, addr shipping.Address, quote shipping.Quote, discount *coupon.Discount, summary pricing.Summary) map[string]any {
	meta := map[string]any{
		"external_reference": reference,
		"cart_id":            c.ID,
		"customer_name":      req.Customer.Name,
		"customer_phone":     req.Customer.WhatsApp,
		"full_address":       addr.Query(),
		"order_summary":      orderLines(c),
		"distance_km":        quote.DistanceKm,
		"subtotal":           summary.Subtotal,
		"discount":           summary.Discount,
		"delivery_fee":       summary.DeliveryFee,
		"total":              summary.Total,
	}
	if req.Note != "" {
		meta["note"] = req.Note
	}
	if discount != nil {
		meta["coupon_code"] = discount.Code
	}
	return meta
}

func orderTitle(c cart.Cart) string {
	total := 0
	for _, l := range c.Lines {
		total += l.Qty
	}
	if total == 1 {
		return "Pedido Roxo Sabor (1 item)"
	}
	return fmt.Sprintf("Pedido Roxo Sabor (%d itens)", total)
}

func orderLines(c cart.Cart) string {
	var b strings.Builder
	for i, l := range c.Lines {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%dx %s", l.Qty, l.Name)
		if l.Observations != "" {
			fmt.Fprintf(&b, " (%s)", l.Observations)
		}
	}
	return b.String()
}
