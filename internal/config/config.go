package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/selara/backend-store/internal/pricing"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	Currency        string
	CatalogCacheTTL time.Duration
	TierSchedule    []pricing.TierSpec
	UpsellTitle     string
	UpsellPrice     int64
	WhatsAppLines   []string
	CartTTL         time.Duration
	AccessTokenTTL  time.Duration
	RefreshTTL      time.Duration
	IdempotencyTTL  time.Duration

	RecaptchaSecret string
	CaptchaBypass   bool

	RateLimit    string
	MaxBodyBytes int64

	LogFormat      string
	LogLevel       string
	MetricsBuckets string
	OTLPEndpoint   string
	TracingRatio   float64
	TracingEnabled bool
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
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		Currency:        valueOrDefault(k.String("STORE_CURRENCY"), "IDR"),
		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		UpsellTitle:     strings.TrimSpace(k.String("UPSELL_TITLE")),
		UpsellPrice:     parseInt64(k.String("UPSELL_PRICE"), 0),
		WhatsAppLines:   splitAndTrim(k.String("WHATSAPP_CONTACTS")),
		CartTTL:         parseDuration(k.String("CART_TTL"), "168h"),
		AccessTokenTTL:  parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		RefreshTTL:      parseDuration(k.String("REFRESH_TOKEN_TTL"), "168h"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "10m"),

		RecaptchaSecret: strings.TrimSpace(k.String("RECAPTCHA_SECRET")),
		CaptchaBypass:   parseBool(k.String("CAPTCHA_BYPASS")),

		RateLimit:    valueOrDefault(k.String("RATE_LIMIT"), "120-M"),
		MaxBodyBytes: parseInt64(k.String("MAX_BODY_BYTES"), 1<<20),

		LogFormat:      valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:       valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsBuckets: strings.TrimSpace(k.String("METRICS_BUCKETS_MS")),
		OTLPEndpoint:   strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		TracingRatio:   parseFloat(k.String("TRACING_SAMPLING_RATIO"), 1),
		TracingEnabled: parseBool(k.String("TRACING_ENABLED")),
	}

	schedule, err := pricing.ParseSchedule(valueOrDefault(k.String("TIER_SCHEDULE"), "1:0,2:1000,3:1500"))
	if err != nil {
		return nil, fmt.Errorf("TIER_SCHEDULE: %w", err)
	}
	cfg.TierSchedule = schedule

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.RecaptchaSecret == "" && !cfg.CaptchaBypass {
		return nil, errors.New("RECAPTCHA_SECRET is required unless CAPTCHA_BYPASS is set")
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

func parseInt64(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
