package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roxosabor/storefront-api/internal/geo"
	"github.com/roxosabor/storefront-api/internal/pricing"
)

// ErrAddressRequired is returned when required address fields are missing.
var ErrAddressRequired = errors.New("shipping: address required")

// ErrAddressNotFound is returned when the geocoder yields no candidates.
var ErrAddressNotFound = errors.New("shipping: address not found")

// ErrGeocodeUnavailable wraps network or service failures from the geocoder.
var ErrGeocodeUnavailable = errors.New("shipping: geocoder unavailable")

// Address carries the free-text delivery address fields. Transient; never
// persisted beyond the quote request.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	Complement   string `json:"complement"`
}

// Query joins the populated address fields into a single geocoder query string.
func (a Address) Query() string {
	parts := make([]string, 0, 4)
	street := strings.TrimSpace(a.Street)
	if number := strings.TrimSpace(a.Number); number != "" {
		street = strings.TrimSpace(street + ", " + number)
	}
	for _, part := range []string{street, strings.TrimSpace(a.Neighborhood), strings.TrimSpace(a.City)} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func (a Address) validate() error {
	if strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.Neighborhood) == "" || strings.TrimSpace(a.City) == "" {
		return ErrAddressRequired
	}
	return nil
}

// Quote is the outcome of a successful fee calculation. The order cannot reach
// checkout until Calculated is true.
type Quote struct {
	DistanceKm float64       `json:"distanceKm"`
	Fee        pricing.Money `json:"price"`
	Calculated bool          `json:"calculated"`
}

// Service computes delivery quotes from geocoded distances.
type Service struct {
	Geocoder geo.Geocoder
	Origin   geo.Point
	Fees     FeeTable
}

// Quote validates the address, geocodes it, and maps the great-circle distance
// from the merchant origin to a fee tier. Results are not cached: the geocoder
// answer may change between calls.
func (s *Service) Quote(ctx context.Context, addr Address) (Quote, error) {
	if s == nil || s.Geocoder == nil {
		return Quote{}, errors.New("shipping: service not configured")
	}
	if err := addr.validate(); err != nil {
		return Quote{}, err
	}
	return s.QuoteQuery(ctx, addr.Query())
}

// QuoteQuery quotes a pre-joined free-text address.
func (s *Service) QuoteQuery(ctx context.Context, query string) (Quote, error) {
	if s == nil || s.Geocoder == nil {
		return Quote{}, errors.New("shipping: service not configured")
	}
	if strings.TrimSpace(query) == "" {
		return Quote{}, ErrAddressRequired
	}
	candidates, err := s.Geocoder.Search(ctx, query)
	if err != nil {
		if errors.Is(err, geo.ErrBadCoordinates) {
			return Quote{}, err
		}
		return Quote{}, fmt.Errorf("%w: %w", ErrGeocodeUnavailable, err)
	}
	if len(candidates) == 0 {
		return Quote{}, ErrAddressNotFound
	}

	// first candidate wins; full precision feeds the tier lookup
	distance := geo.Haversine(s.Origin, candidates[0].Point)
	return Quote{
		DistanceKm: geo.RoundKm(distance),
		Fee:        s.Fees.FeeFor(distance),
		Calculated: true,
	}, nil
}
