package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/roxosabor/storefront-api/internal/pricing"
)

// ErrNotFound indicates the requested cart could not be located or has expired.
var ErrNotFound = errors.New("cart not found")

// Line is a single cart entry. Owned exclusively by the session that created it.
type Line struct {
	ProductID    string        `json:"productId"`
	Name         string        `json:"name"`
	UnitPrice    pricing.Money `json:"unitPrice"`
	Qty          int           `json:"qty"`
	Observations string        `json:"observations,omitempty"`
}

// Cart is a session-scoped shopping cart. At most one coupon is active;
// applying a new code replaces the previous one.
type Cart struct {
	ID         string    `json:"id"`
	Lines      []Line    `json:"lines"`
	CouponCode string    `json:"couponCode,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Store persists carts in Redis as JSON blobs with a sliding TTL.
type Store struct {
	R   *redis.Client
	TTL time.Duration
}

func (s *Store) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 72 * time.Hour
	}
	return s.TTL
}

func cartKey(id string) string { return "cart:" + id }

// Get loads a cart by id.
func (s *Store) Get(ctx context.Context, id string) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart store not configured")
	}
	data, err := s.R.Get(ctx, cartKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, err
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Save writes the cart back and refreshes its TTL.
func (s *Store) Save(ctx context.Context, c Cart) error {
	if s == nil || s.R == nil {
		return errors.New("cart store not configured")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, cartKey(c.ID), data, s.ttl()).Err()
}

// Delete removes the cart.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.R == nil {
		return errors.New("cart store not configured")
	}
	return s.R.Del(ctx, cartKey(id)).Err()
}
