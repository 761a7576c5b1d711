package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/listingdesk/internal/pricing"
)

const (
	defaultEnv      = "development"
	defaultDBPath   = "./listingdesk.db"
	defaultPort     = "8080"
	defaultLogLevel = "info"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string
	DBPath         string
	Port           string
	LogLevel       string
	SendGridAPIKey string
	Pricing        pricing.Options

	// Warnings lists non-fatal problems found while loading, for the caller to log.
	Warnings []string
}

// Load reads a local .env file if present, then the process environment.
func Load() Config {
	return load(".env")
}

func load(dotenvPath string) Config {
	// Missing file is fine; production injects real environment variables.
	_ = godotenv.Load(dotenvPath)

	cfg := Config{
		Env:            getenv("APP_ENV", defaultEnv),
		DBPath:         getenv("DB_PATH", defaultDBPath),
		Port:           getenv("PORT", defaultPort),
		LogLevel:       getenv("LOG_LEVEL", defaultLogLevel),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
	}

	defaults := pricing.DefaultOptions()
	cfg.Pricing = pricing.Options{
		ShippingBuffer: cfg.decimalEnv("PRICING_SHIPPING_BUFFER", defaults.ShippingBuffer),
		FeeRate:        cfg.decimalEnv("PRICING_FEE_RATE", defaults.FeeRate),
		FixedFee:       cfg.decimalEnv("PRICING_FIXED_FEE", defaults.FixedFee),
		MinMargin:      cfg.decimalEnv("PRICING_MIN_MARGIN", defaults.MinMargin),
		UndercutFactor: cfg.decimalEnv("PRICING_UNDERCUT_FACTOR", defaults.UndercutFactor),
		MarketingRate:  cfg.decimalEnv("PRICING_MARKETING_RATE", defaults.MarketingRate),
	}
	if err := cfg.Pricing.Validate(); err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("pricing options rejected, using defaults: %v", err))
		cfg.Pricing = defaults
	}

	if cfg.SendGridAPIKey == "" {
		cfg.Warnings = append(cfg.Warnings, "SENDGRID_API_KEY is not set; email notifications stay disabled")
	}

	return cfg
}

// IsDev reports whether the app runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == defaultEnv
}

func (c *Config) decimalEnv(key string, fallback decimal.Decimal) decimal.Decimal {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not a number, using %s", key, raw, fallback))
		return fallback
	}
	return value
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
