package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"REDIS_URL": "redis://localhost:6379/0",
	})
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "BRL", cfg.Currency)
	require.EqualValues(t, 1500, cfg.MinOrderTotal)
	require.Equal(t, "1=499,3=799,5=1099", cfg.ShippingTiersCSV)
	require.EqualValues(t, 1299, cfg.ShippingBeyondFee)
	require.Equal(t, "https://nominatim.openstreetmap.org", cfg.GeocoderBaseURL)
	require.InDelta(t, -20.665541149082127, cfg.StoreLat, 1e-12)
	require.InDelta(t, -43.804545918264765, cfg.StoreLon, 1e-12)
	require.Equal(t, 72*time.Hour, cfg.CartTTL)
	require.Equal(t, 10, cfg.QuoteRateLimitMax)
	require.Equal(t, time.Minute, cfg.QuoteRateLimitWindow)
	require.True(t, cfg.SecurityHeadersEnabled)
}

func TestLoadRequiresRedisURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"REDIS_URL": "",
	})
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"REDIS_URL":          "redis://localhost:6379/0",
		"PORT":               "9999",
		"SHIPPING_FEE_TIERS": "2=600,4=900",
		"SHIPPING_FEE_BEYOND": "1500",
		"MIN_ORDER_TOTAL":    "2000",
		"STORE_ORIGIN_LAT":   "-21.5",
		"STORE_ORIGIN_LON":   "-44.5",
		"CART_TTL":           "24h",
	})
	require.NoError(t, err)

	require.Equal(t, ":9999", cfg.HTTPAddr())
	require.Equal(t, "2=600,4=900", cfg.ShippingTiersCSV)
	require.EqualValues(t, 1500, cfg.ShippingBeyondFee)
	require.EqualValues(t, 2000, cfg.MinOrderTotal)
	require.InDelta(t, -21.5, cfg.StoreLat, 1e-9)
	require.Equal(t, 24*time.Hour, cfg.CartTTL)
}

func TestLoadRejectsOutOfRangeOrigin(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"REDIS_URL":        "redis://localhost:6379/0",
		"STORE_ORIGIN_LAT": "95",
	})
	require.Error(t, err)
}
