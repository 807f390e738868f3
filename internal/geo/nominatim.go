package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/roxosabor/storefront-api/internal/obs"
	"github.com/roxosabor/storefront-api/internal/resilience"
)

// ErrBadCoordinates indicates the geocoder answered with coordinates that could not be parsed.
var ErrBadCoordinates = errors.New("geo: invalid coordinates in geocoder response")

// Candidate is a single geocoding result.
type Candidate struct {
	Point       Point
	DisplayName string
}

// Geocoder resolves a free-text address query into coordinate candidates.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// NominatimClient queries a Nominatim-compatible search endpoint.
//
// The public OpenStreetMap instance requires a meaningful User-Agent and at
// most one request per second, which is why callers put a rate limiter in
// front of the quote endpoint.
type NominatimClient struct {
	BaseURL   string
	UserAgent string
	HTTP      *resilience.HTTPClient
	Limit     int
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search implements Geocoder against the Nominatim search API.
func (c NominatimClient) Search(ctx context.Context, query string) ([]Candidate, error) {
	if c.HTTP == nil {
		return nil, errors.New("geo: http client not configured")
	}
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = "https://nominatim.openstreetmap.org"
	}
	limit := c.Limit
	if limit <= 0 {
		limit = 1
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geo: build request: %w", err)
	}
	if ua := strings.TrimSpace(c.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(ctx, req)
	if obs.GeocodeLatency != nil {
		obs.GeocodeLatency.Observe(obs.DurationMillis(time.Since(start)))
	}
	if err != nil {
		return nil, fmt.Errorf("geo: search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo: search returned %s", resp.Status)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geo: decode response: %w", err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(r.Lon), 64)
		if latErr != nil || lonErr != nil {
			return nil, ErrBadCoordinates
		}
		candidates = append(candidates, Candidate{
			Point:       Point{Lat: lat, Lon: lon},
			DisplayName: r.DisplayName,
		})
	}
	return candidates, nil
}
