package config

import (
	"errors"
	"fmt"
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
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	AccessTokenTTL     time.Duration
	CORSAllowedOrigins []string

	StoreHeader     string
	StoreRootDomain string
	DefaultStore    string

	CartTTL     time.Duration
	CatalogTTL  time.Duration
	ShippingFee int64

	PromoRateLimit  int64
	PromoRatePeriod time.Duration

	SMTPAddr string
	SMTPFrom string

	LogFormat string
	LogLevel  string

	TracingEnabled  bool
	TracingEndpoint string
	SamplingRatio   float64

	LowStockScanSchedule string
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
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          valueOrDefault(k.String("JWT_ISSUER"), "storefront"),
		JWTAudience:        valueOrDefault(k.String("JWT_AUDIENCE"), "sellers"),
		AccessTokenTTL:     parseDuration(k.String("ACCESS_TOKEN_TTL"), "1h"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		StoreHeader:     valueOrDefault(k.String("STORE_HEADER"), "X-Store-ID"),
		StoreRootDomain: strings.TrimSpace(k.String("STORE_ROOT_DOMAIN")),
		DefaultStore:    strings.TrimSpace(k.String("DEFAULT_STORE")),

		CartTTL:     parseDuration(k.String("CART_TTL"), "168h"),
		CatalogTTL:  parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		ShippingFee: k.Int64("SHIPPING_FEE"),

		PromoRateLimit:  valueOrDefaultInt64(k.Int64("PROMO_RATE_LIMIT"), 10),
		PromoRatePeriod: parseDuration(k.String("PROMO_RATE_PERIOD"), "1m"),

		SMTPAddr: strings.TrimSpace(k.String("SMTP_ADDR")),
		SMTPFrom: valueOrDefault(k.String("SMTP_FROM"), "no-reply@wovenshop.dev"),

		LogFormat: valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:  valueOrDefault(k.String("LOG_LEVEL"), "info"),

		TracingEnabled:  parseBool(k.String("TRACING_ENABLED")),
		TracingEndpoint: strings.TrimSpace(k.String("TRACING_ENDPOINT")),
		SamplingRatio:   k.Float64("TRACING_SAMPLING_RATIO"),

		LowStockScanSchedule: valueOrDefault(k.String("LOW_STOCK_SCAN_SCHEDULE"), "@every 1h"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
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

func valueOrDefaultInt64(value, fallback int64) int64 {
	if value > 0 {
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
	}
	return false
}
