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
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	CatalogTokenTTL time.Duration
	StaffTokenTTL   time.Duration
	CartTTL         time.Duration
	CatalogCacheTTL time.Duration

	WAGatewayURL    string
	WAGatewayToken  string
	WARecipient     string
	WASendAttempts  int
	WASendBackoff   time.Duration
	WASendTimeout   time.Duration
	WebhookAttempts int
	WebhookBackoff  time.Duration
	WebhookTimeout  time.Duration

	LeadRatePerMinute int
	GlobalRateLimit   string
	IdempotencyTTL    time.Duration
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

		CatalogTokenTTL: parseDuration(k.String("CATALOG_TOKEN_TTL"), "720h"),
		StaffTokenTTL:   parseDuration(k.String("STAFF_TOKEN_TTL"), "12h"),
		CartTTL:         parseDuration(k.String("CART_TTL"), "168h"),
		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "60s"),

		WAGatewayURL:    strings.TrimSpace(k.String("WA_GATEWAY_URL")),
		WAGatewayToken:  k.String("WA_GATEWAY_TOKEN"),
		WARecipient:     strings.TrimSpace(k.String("WA_RECIPIENT")),
		WASendAttempts:  parseInt(k.String("WA_SEND_ATTEMPTS"), 3),
		WASendBackoff:   parseDuration(k.String("WA_SEND_BACKOFF"), "2s"),
		WASendTimeout:   parseDuration(k.String("WA_SEND_TIMEOUT"), "10s"),
		WebhookAttempts: parseInt(k.String("WEBHOOK_ATTEMPTS"), 5),
		WebhookBackoff:  parseDuration(k.String("WEBHOOK_BACKOFF"), "5s"),
		WebhookTimeout:  parseDuration(k.String("WEBHOOK_TIMEOUT"), "10s"),

		LeadRatePerMinute: parseInt(k.String("LEAD_RATE_PER_MINUTE"), 5),
		GlobalRateLimit:   valueOrDefault(k.String("GLOBAL_RATE_LIMIT"), "120-M"),
		IdempotencyTTL:    parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
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

// WAConfigured reports whether the WhatsApp gateway is usable.
func (c *Config) WAConfigured() bool {
	return c.WAGatewayURL != "" && c.WARecipient != ""
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

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
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
