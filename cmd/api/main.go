package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/roxosabor/storefront-api/internal/cart"
	"github.com/roxosabor/storefront-api/internal/catalog"
	"github.com/roxosabor/storefront-api/internal/checkout"
	"github.com/roxosabor/storefront-api/internal/common"
	"github.com/roxosabor/storefront-api/internal/config"
	"github.com/roxosabor/storefront-api/internal/coupon"
	"github.com/roxosabor/storefront-api/internal/geo"
	"github.com/roxosabor/storefront-api/internal/health"
	"github.com/roxosabor/storefront-api/internal/notify"
	"github.com/roxosabor/storefront-api/internal/obs"
	"github.com/roxosabor/storefront-api/internal/payment"
	"github.com/roxosabor/storefront-api/internal/pricing"
	"github.com/roxosabor/storefront-api/internal/ratelimit"
	"github.com/roxosabor/storefront-api/internal/resilience"
	"github.com/roxosabor/storefront-api/internal/security"
	"github.com/roxosabor/storefront-api/internal/shipping"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "storefront")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)
	resilience.MustRegisterMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "storefront-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	outbound := func(target string) *resilience.HTTPClient {
		return &resilience.HTTPClient{
			Client: &http.Client{
				Timeout:   cfg.OutboundTimeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
			Breaker: resilience.NewBreaker(cfg.CircuitMinReq, cfg.CircuitFailureRate, cfg.CircuitOpenFor).
				WithTarget(target).
				WithLogger(logger),
			BaseBackoff: cfg.RetryBase,
			MaxAttempts: cfg.RetryMaxAttempts,
			Jitter:      cfg.RetryJitterPercent,
			Timeout:     cfg.OutboundTimeout,
		}
	}

	store, categories, products := catalog.Seed()
	catalogSvc, err := catalog.NewService(store, categories, products)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog")
	}
	catalogHandler := &catalog.Handler{Svc: catalogSvc}

	couponTable := coupon.DefaultTable()
	if cfg.CouponTableJSON != "" {
		couponTable, err = coupon.ParseTableJSON(cfg.CouponTableJSON)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse coupon table")
		}
	}
	couponResolver, err := coupon.NewResolver(couponTable)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise coupon resolver")
	}
	couponHandler := &coupon.Handler{Resolver: couponResolver}

	fees, err := shipping.ParseTiers(cfg.ShippingTiersCSV, pricing.Money(cfg.ShippingBeyondFee))
	if err != nil {
		logger.Fatal().Err(err).Msg("parse shipping fee tiers")
	}
	geocoderClient := outbound("nominatim")
	geocoderClient.Timeout = cfg.GeocoderTimeout
	shippingSvc := &shipping.Service{
		Geocoder: geo.NominatimClient{
			BaseURL:   cfg.GeocoderBaseURL,
			UserAgent: cfg.GeocoderUserAgent,
			HTTP:      geocoderClient,
		},
		Origin: geo.Point{Lat: cfg.StoreLat, Lon: cfg.StoreLon},
		Fees:   fees,
	}
	shippingHandler := &shipping.Handler{Svc: shippingSvc}

	cartSvc := &cart.Service{
		Store:   &cart.Store{R: redisClient, TTL: cfg.CartTTL},
		Catalog: catalogSvc,
		Coupons: couponResolver,
	}
	cartHandler := &cart.Handler{Svc: cartSvc, Currency: cfg.Currency}

	provider := payment.MercadoPago{
		AccessToken: cfg.MPAccessToken,
		BaseURL:     cfg.MPBaseURL,
		HTTP:        outbound("mercadopago"),
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.NotifyEnabled && cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifier = notify.Telegram{
			BotToken: cfg.TelegramBotToken,
			ChatID:   cfg.TelegramChatID,
			HTTP:     outbound("telegram"),
		}
	}

	checkoutSvc := &checkout.Service{
		Carts:              cartSvc,
		Shipping:           shippingSvc,
		Provider:           provider,
		Logger:             logger,
		MinOrderTotal:      pricing.Money(cfg.MinOrderTotal),
		Currency:           cfg.Currency,
		PublicBaseURL:      cfg.PublicBaseURL,
		NotificationSecret: cfg.MPNotificationSecret,
		StatementDesc:      "ROXO SABOR",
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc, Validate: validator.New()}

	webhookHandler := &payment.WebhookHandler{
		Secret:   cfg.MPNotificationSecret,
		Provider: provider,
		Notifier: notifier,
		Logger:   logger,
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	quoteLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:quote:"},
		Config:  ratelimit.ByClientIP(cfg.QuoteRateLimitWindow, cfg.QuoteRateLimitMax),
		OnError: func(err error) { logger.Error().Err(err).Msg("rate limiter") },
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      health.RedisChecker{Client: redisClient},
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/store", catalogHandler.Store)
		v.Get("/categories", catalogHandler.Categories)
		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{id}", catalogHandler.ProductDetail)

		v.Post("/coupons/validate", couponHandler.Validate)

		v.With(quoteLimit.Middleware).Post("/shipping/quote", shippingHandler.QuoteShipping)

		v.Route("/carts", func(c chi.Router) {
			c.Get("/{id}", cartHandler.Get)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", cartHandler.Create)
				g.Post("/{id}/items", cartHandler.AddItem)
				g.Patch("/{id}/items/{productId}", cartHandler.UpdateItem)
				g.Delete("/{id}/items/{productId}", cartHandler.RemoveItem)
				g.Post("/{id}/apply-coupon", cartHandler.ApplyCoupon)
				g.Delete("/{id}/coupon", cartHandler.RemoveCoupon)
			})
		})

		v.With(idem.Middleware).Post("/checkout", checkoutHandler.Checkout)

		v.Post("/payments/webhook", webhookHandler.Handle)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	return http.StripPrefix("/debug/pprof", mux)
}

func protectPprof(next http.Handler, user, pass string) http.Handler {
	if user == "" || pass == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(gotUser), []byte(user)) != 1 ||
			subtle.ConstantTimeCompare([]byte(gotPass), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="pprof"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDurationMillis(key string, fallback int64) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return time.Duration(fallback) * time.Millisecond
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		return time.Duration(fallback) * time.Millisecond
	}
	return time.Duration(parsed) * time.Millisecond
}
