package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/wovenshop/storefront/internal/auth"
	"github.com/wovenshop/storefront/internal/cart"
	"github.com/wovenshop/storefront/internal/catalog"
	"github.com/wovenshop/storefront/internal/checkout"
	"github.com/wovenshop/storefront/internal/common"
	"github.com/wovenshop/storefront/internal/config"
	"github.com/wovenshop/storefront/internal/db"
	"github.com/wovenshop/storefront/internal/events"
	"github.com/wovenshop/storefront/internal/health"
	"github.com/wovenshop/storefront/internal/inventory"
	"github.com/wovenshop/storefront/internal/notify"
	"github.com/wovenshop/storefront/internal/obs"
	"github.com/wovenshop/storefront/internal/order"
	"github.com/wovenshop/storefront/internal/promo"
	"github.com/wovenshop/storefront/internal/ratelimit"
	"github.com/wovenshop/storefront/internal/store"
)

const metricsNamespace = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "storefront-api",
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	validate := validator.New()

	promoRepo := promo.NewPostgresRepository(pool)
	catalogRepo := catalog.NewPostgresRepository(pool)
	orderRepo := order.NewPostgresRepository(pool)
	eventStore := events.NewPostgresStore(pool)

	promoSvc := &promo.Service{Repo: promoRepo, Logger: &logger}
	catalogSvc := &catalog.Service{
		Repo:   catalogRepo,
		Cache:  &catalog.Cache{Client: redisClient, TTL: cfg.CatalogTTL},
		Logger: &logger,
	}
	cartSvc := &cart.Service{
		Storage: cart.RedisStorage{Client: redisClient, TTL: cfg.CartTTL},
		Promos:  promoSvc,
		Logger:  &logger,
	}

	bus := &events.Bus{Store: eventStore, Logger: &logger}
	notifier := &notify.Notifier{Email: common.NewEmailSender(cfg.SMTPAddr, cfg.SMTPFrom), Stores: catalogRepo, Logger: &logger}
	notifier.Register(bus)

	checkoutSvc := &checkout.Service{
		Carts:   cartSvc,
		Promos:  promoSvc,
		Catalog: catalogSvc,
		Tx:      &checkout.PgTxRunner{Pool: pool, Orders: orderRepo, Promos: promoRepo},
		Bus:     bus,

		ShippingFee: cfg.ShippingFee,
		Logger:      &logger,
	}

	cartHandler := &cart.Handler{Svc: cartSvc, Products: catalogSvc, Validate: validate}
	catalogHandler := &catalog.Handler{Svc: catalogSvc, Validate: validate}
	promoHandler := &promo.Handler{Svc: promoSvc, Validate: validate}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc, Validate: validate}
	orderHandler := &order.Handler{Repo: orderRepo, Validate: validate}

	asynqRedis, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	taskClient := asynq.NewClient(asynqRedis)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task queue client")
		}
	}()
	inventoryHandler := &inventory.Handler{Client: taskClient}

	tokens := &auth.Tokens{
		Secret:    []byte(cfg.JWTSecret),
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
		TTL:       cfg.AccessTokenTTL,
		ClockSkew: 30 * time.Second,
	}
	authMiddleware := auth.Middleware{Tokens: tokens}

	limiterStore, err := limiterredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "ratelimit"})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter store")
	}
	promoLimiter := ratelimit.New(limiterStore, limiter.Rate{
		Period: cfg.PromoRatePeriod,
		Limit:  cfg.PromoRateLimit,
	}, cart.SessionCookie)
	promoLimiter.Logger = &logger

	resolver := store.Resolver{
		HeaderName:   cfg.StoreHeader,
		RootDomain:   cfg.StoreRootDomain,
		DefaultStore: cfg.DefaultStore,
	}

	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, nil, nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Store-ID", "X-Session-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{Checker: health.Probes{DB: pool, Redis: redisClient}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(resolver.Middleware)
		v.Use(store.Require)

		v.Get("/products", catalogHandler.List)
		v.Get("/products/{idOrSlug}", catalogHandler.Get)

		v.Route("/cart", func(c chi.Router) {
			c.Get("/", cartHandler.Get)
			c.Post("/items", cartHandler.AddItem)
			c.Patch("/items/{key}", cartHandler.SetQuantity)
			c.Delete("/items/{key}", cartHandler.RemoveItem)
			c.With(promoLimiter.Handler).Post("/promo", cartHandler.ApplyCode)
			c.Delete("/promo", cartHandler.RemoveCode)
		})

		v.Post("/checkout", checkoutHandler.PlaceOrder)

		v.Route("/seller", func(s chi.Router) {
			s.Use(authMiddleware.RequireSeller)
			s.Post("/products", catalogHandler.Create)
			s.Put("/products/{id}", catalogHandler.Update)
			s.Get("/promotions", promoHandler.List)
			s.Post("/promotions", promoHandler.Create)
			s.Put("/promotions/{code}", promoHandler.Update)
			s.Post("/promotions/preview", promoHandler.Preview)
			s.Get("/orders", orderHandler.List)
			s.Get("/orders/{id}", orderHandler.Get)
			s.Patch("/orders/{id}/status", orderHandler.UpdateStatus)
			s.Post("/inventory/scan", inventoryHandler.TriggerScan)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "storefront-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}
