package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string
	PublicBaseURL      string

	// Merchant origin used for delivery distance calculations.
	StoreLat float64
	StoreLon float64

	// Geocoder (Nominatim-compatible search API).
	GeocoderBaseURL   string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration

	// Delivery fee tiers as "maxKm=feeMinorUnits" pairs plus the beyond-last fee.
	ShippingTiersCSV  string
	ShippingBeyondFee int64

	// Coupon table override; empty keeps the built-in table.
	CouponTableJSON string

	Currency       string
	MinOrderTotal  int64
	CartTTL        time.Duration
	IdempotencyTTL time.Duration

	// Mercado Pago checkout handoff.
	MPAccessToken        string
	MPBaseURL            string
	MPNotificationSecret string

	// Telegram order notification relay.
	TelegramBotToken string
	TelegramChatID   string
	NotifyEnabled    bool

	// Quote endpoint rate limiting (geocoder politeness).
	QuoteRateLimitMax    int
	QuoteRateLimitWindow time.Duration

	// Outbound HTTP resilience.
	OutboundTimeout    time.Duration
	RetryBase          time.Duration
	RetryMaxAttempts   int
	RetryJitterPercent float64
	CircuitMinReq      int
	CircuitFailureRate float64
	CircuitOpenFor     time.Duration

	BodyLimitBytes         int64
	SecurityHeadersEnabled bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		PublicBaseURL:      strings.TrimRight(strings.TrimSpace(k.String("PUBLIC_BASE_URL")), "/"),

		StoreLat: parseFloat(k.String("STORE_ORIGIN_LAT"), -20.665541149082127),
		StoreLon: parseFloat(k.String("STORE_ORIGIN_LON"), -43.804545918264765),

		GeocoderBaseURL:   valueOrDefault(k.String("GEOCODER_BASE_URL"), "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: valueOrDefault(k.String("GEOCODER_USER_AGENT"), "roxo-sabor-storefront/1.0"),
		GeocoderTimeout:   parseDuration(k.String("GEOCODER_TIMEOUT"), "5s"),

		ShippingTiersCSV:  valueOrDefault(k.String("SHIPPING_FEE_TIERS"), "1=499,3=799,5=1099"),
		ShippingBeyondFee: parseInt64(k.String("SHIPPING_FEE_BEYOND"), 1299),

		CouponTableJSON: k.String("COUPON_TABLE_JSON"),

		Currency:       valueOrDefault(k.String("CURRENCY_CODE"), "BRL"),
		MinOrderTotal:  parseInt64(k.String("MIN_ORDER_TOTAL"), 1500),
		CartTTL:        parseDuration(k.String("CART_TTL"), "72h"),
		IdempotencyTTL: parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		MPAccessToken:        k.String("MP_ACCESS_TOKEN"),
		MPBaseURL:            valueOrDefault(k.String("MP_BASE_URL"), "https://api.mercadopago.com"),
		MPNotificationSecret: k.String("MP_NOTIFICATION_SECRET"),

		TelegramBotToken: k.String("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   k.String("TELEGRAM_CHAT_ID"),
		NotifyEnabled:    parseBool(valueOrDefault(k.String("NOTIFY_ENABLED"), "true")),

		QuoteRateLimitMax:    parseInt(k.String("QUOTE_RATE_LIMIT_MAX"), 10),
		QuoteRateLimitWindow: parseDuration(k.String("QUOTE_RATE_LIMIT_WINDOW"), "1m"),

		OutboundTimeout:    parseDuration(k.String("OUTBOUND_TIMEOUT"), "8s"),
		RetryBase:          parseDuration(k.String("RETRY_BASE"), "200ms"),
		RetryMaxAttempts:   parseInt(k.String("RETRY_MAX_ATTEMPTS"), 3),
		RetryJitterPercent: parseFloat(k.String("RETRY_JITTER_PERCENT"), 0.2),
		CircuitMinReq:      parseInt(k.String("CIRCUIT_MIN_REQUESTS"), 5),
		CircuitFailureRate: parseFloat(k.String("CIRCUIT_FAILURE_RATE"), 0.5),
		CircuitOpenFor:     parseDuration(k.String("CIRCUIT_OPEN_FOR"), "30s"),

		BodyLimitBytes:         parseInt64(k.String("SECURE_BODY_LIMIT_BYTES"), 1<<20),
		SecurityHeadersEnabled: parseBool(valueOrDefault(k.String("SECURE_HEADERS_ENABLED"), "true")),
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.StoreLat < -90 || cfg.StoreLat > 90 || cfg.StoreLon < -180 || cfg.StoreLon > 180 {
		return nil, errors.New("store origin coordinates out of range")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseInt64(value string, fallback int64) int64 {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
