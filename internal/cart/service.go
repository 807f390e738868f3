package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roxosabor/storefront-api/internal/catalog"
	"github.com/roxosabor/storefront-api/internal/coupon"
	"github.com/roxosabor/storefront-api/internal/pricing"
)

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrLineNotFound indicates the referenced cart line does not exist.
var ErrLineNotFound = errors.New("cart line not found")

// Service encapsulates cart domain operations.
type Service struct {
	Store   *Store
	Catalog *catalog.Service
	Coupons *coupon.Resolver
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create starts an empty session cart.
func (s *Service) Create(ctx context.Context) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	now := s.now()
	c := Cart{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if err := s.Store.Save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Get loads a cart by id.
func (s *Service) Get(ctx context.Context, id string) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if strings.TrimSpace(id) == "" {
		return Cart{}, ErrInvalidInput
	}
	return s.Store.Get(ctx, id)
}

// AddItem inserts or increments a cart line, pricing it from the catalog.
func (s *Service) AddItem(ctx context.Context, cartID, productID string, qty int, observations string) (Cart, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return Cart{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	product, err := s.Catalog.Product(productID)
	if err != nil {
		return Cart{}, err
	}
	c, err := s.Store.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}

	merged := false
	for i := range c.Lines {
		if c.Lines[i].ProductID == product.ID {
			c.Lines[i].Qty += qty
			if observations != "" {
				c.Lines[i].Observations = observations
			}
			merged = true
			break
		}
	}
	if !merged {
		c.Lines = append(c.Lines, Line{
			ProductID:    product.ID,
			Name:         product.Name,
			UnitPrice:    product.Price,
			Qty:          qty,
			Observations: observations,
		})
	}
	c.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// UpdateQty sets the quantity for an existing line.
func (s *Service) UpdateQty(ctx context.Context, cartID, productID string, qty int) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return Cart{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	c, err := s.Store.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Qty = qty
			c.UpdatedAt = s.now()
			if err := s.Store.Save(ctx, c); err != nil {
				return Cart{}, err
			}
			return c, nil
		}
	}
	return Cart{}, ErrLineNotFound
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, productID string) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c, err := s.Store.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.UpdatedAt = s.now()
			if err := s.Store.Save(ctx, c); err != nil {
				return Cart{}, err
			}
			return c, nil
		}
	}
	return Cart{}, ErrLineNotFound
}

// ApplyCoupon resolves and attaches a coupon code, replacing any previous one.
func (s *Service) ApplyCoupon(ctx context.Context, cartID, code string) (Cart, coupon.Discount, error) {
	if s == nil || s.Store == nil || s.Coupons == nil {
		return Cart{}, coupon.Discount{}, errors.New("cart service not configured")
	}
	if strings.TrimSpace(code) == "" {
		return Cart{}, coupon.Discount{}, fmt.Errorf("code is required: %w", ErrInvalidInput)
	}
	d, err := s.Coupons.Resolve(code)
	if err != nil {
		return Cart{}, coupon.Discount{}, err
	}
	c, err := s.Store.Get(ctx, cartID)
	if err != nil {
		return Cart{}, coupon.Discount{}, err
	}
	c.CouponCode = d.Code
	c.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, c); err != nil {
		return Cart{}, coupon.Discount{}, err
	}
	return c, d, nil
}

// RemoveCoupon clears any applied coupon.
func (s *Service) RemoveCoupon(ctx context.Context, cartID string) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c, err := s.Store.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	c.CouponCode = ""
	c.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Discount resolves the cart's applied coupon, if any. A code that no longer
// resolves is ignored rather than failing the cart.
func (s *Service) Discount(c Cart) *coupon.Discount {
	if s == nil || s.Coupons == nil || c.CouponCode == "" {
		return nil
	}
	d, err := s.Coupons.Resolve(c.CouponCode)
	if err != nil {
		return nil
	}
	return &d
}

// PricingItems converts cart lines into pricing inputs.
func PricingItems(c Cart) []pricing.Item {
	items := make([]pricing.Item, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, pricing.Item{Qty: l.Qty, UnitPrice: l.UnitPrice})
	}
	return items
}
