package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"20s"`

	// Storefront API
	StorefrontToken   string `env:"PUBLIC_STOREFRONT_API_TOKEN"`
	StorefrontDomain  string `env:"PUBLIC_STORE_DOMAIN"`
	StorefrontVersion string `env:"PUBLIC_STOREFRONT_API_VERSION" envDefault:"2025-10"`

	ProductFetchTimeout time.Duration `env:"PRODUCT_FETCH_TIMEOUT" envDefault:"10s"`
	CartMutationTimeout time.Duration `env:"CART_MUTATION_TIMEOUT" envDefault:"15s"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"30m"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart snapshot TTL in hours (default: 7 days)
	CartSnapshotTTL int `env:"CART_SNAPSHOT_TTL_HOURS" envDefault:"168"`

	// Kafka
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	CartEventsEnabled bool     `env:"CART_EVENTS_ENABLED" envDefault:"false"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Rate limiting of cart mutation routes, per session
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// Storefront circuit breaker
	BreakerTimeout      time.Duration `env:"STOREFRONT_BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerFailureRatio float64       `env:"STOREFRONT_BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32        `env:"STOREFRONT_BREAKER_MIN_REQUESTS" envDefault:"5"`
}

// Load reads configuration from environment variables.
func Load(opts ...pkgconfig.Option) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SnapshotTTL returns the cart snapshot lifetime.
func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.CartSnapshotTTL) * time.Hour
}

// validate checks configuration invariants. Missing storefront credentials
// are not an error: every storefront call then fails with a transport error.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if strings.Contains(c.StorefrontDomain, "/") {
		return fmt.Errorf("PUBLIC_STORE_DOMAIN must be a host name, got %q", c.StorefrontDomain)
	}
	if c.ProductFetchTimeout <= 0 || c.CartMutationTimeout <= 0 {
		return fmt.Errorf("PRODUCT_FETCH_TIMEOUT and CART_MUTATION_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.CartSnapshotTTL < 1 {
		return fmt.Errorf("CART_SNAPSHOT_TTL_HOURS must be at least 1")
	}
	if c.CartEventsEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when CART_EVENTS_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return fmt.Errorf("STOREFRONT_BREAKER_FAILURE_RATIO must be in (0, 1], got %v", c.BreakerFailureRatio)
	}
	return nil
}
