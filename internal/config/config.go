// Package config loads the storefront's runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

const devSessionSecret = "dev-only-session-secret-change-me"

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	// GRPCAddr serves the gRPC health service. Empty disables it.
	GRPCAddr  string `env:"GRPC_ADDR" envDefault:":9090"`
	DBPath    string `env:"DB_PATH"   envDefault:"./data/shop.db"`
	RedisAddr string `env:"REDIS_ADDR"`

	SessionSecret string        `env:"SESSION_SECRET" envDefault:"dev-only-session-secret-change-me"`
	SessionTTL    time.Duration `env:"SESSION_TTL"    envDefault:"24h"`

	DefaultCurrency string          `env:"DEFAULT_CURRENCY" envDefault:"GBP"`
	TaxRate         decimal.Decimal `env:"TAX_RATE"         envDefault:"0"`

	AllowAnonCheckout   bool   `env:"ALLOW_ANON_CHECKOUT"    envDefault:"false"`
	BlockAdminAPIAccess bool   `env:"BLOCK_ADMIN_API_ACCESS" envDefault:"true"`
	InitialOrderStatus  string `env:"INITIAL_ORDER_STATUS"   envDefault:"new"`
	// PaymentURLTemplate may contain {number}, replaced with the order number.
	PaymentURLTemplate string `env:"PAYMENT_URL_TEMPLATE"`

	FixedShippingCharge   decimal.Decimal `env:"FIXED_SHIPPING_CHARGE"   envDefault:"5.00"`
	FreeShippingThreshold decimal.Decimal `env:"FREE_SHIPPING_THRESHOLD" envDefault:"0"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"storefront-api"`
	Environment  string `env:"APP_ENV"           envDefault:"local"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET must not be empty"))
	}
	if c.Environment == "production" && c.SessionSecret == devSessionSecret {
		errs = append(errs, errors.New("SESSION_SECRET must be set in production"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if len(c.DefaultCurrency) != 3 {
		errs = append(errs, fmt.Errorf("DEFAULT_CURRENCY %q is not an ISO 4217 code", c.DefaultCurrency))
	}
	if c.TaxRate.IsNegative() {
		errs = append(errs, errors.New("TAX_RATE must not be negative"))
	}
	if c.FixedShippingCharge.IsNegative() {
		errs = append(errs, errors.New("FIXED_SHIPPING_CHARGE must not be negative"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", s)
}
