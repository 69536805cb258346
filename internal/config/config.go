package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const defaultJWTSecret = "change-me-jwt-secret"

type Config struct {
	AppEnv      string        `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr    string        `envconfig:"HTTP_ADDR" default:":8080"`
	DatabaseURL string        `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret   string        `envconfig:"JWT_SECRET" default:"change-me-jwt-secret"`
	JWTTTL      time.Duration `envconfig:"JWT_TTL" default:"24h"`
	CORSOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS"`

	BusinessTimezone      string        `envconfig:"BUSINESS_TIMEZONE" default:"Asia/Kolkata"`
	ExpiryGrace           time.Duration `envconfig:"BOOKING_EXPIRY_GRACE" default:"0s"`
	RescheduleWindow      time.Duration `envconfig:"RESCHEDULE_WINDOW" default:"24h"`
	TherapistSharePercent int           `envconfig:"THERAPIST_SHARE_PERCENT" default:"40"`
	AdvancePercent        int           `envconfig:"ADVANCE_PERCENT" default:"50"`
	ExpiryInterval        time.Duration `envconfig:"EXPIRY_INTERVAL" default:"0s"`
	RedisAddr             string        `envconfig:"REDIS_ADDR"`

	// Embedded so its keys are read without a prefix.
	GatewayConfig
}

type GatewayConfig struct {
	KeyID           string        `envconfig:"RAZORPAY_KEY_ID"`
	KeySecret       string        `envconfig:"RAZORPAY_KEY_SECRET"`
	Currency        string        `envconfig:"PAYMENT_CURRENCY" default:"INR"`
	BreakerFailures int64         `envconfig:"GATEWAY_BREAKER_FAILURES" default:"5"`
	Timeout         time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`
}

// Configured reports whether gateway credentials are present.
func (g GatewayConfig) Configured() bool {
	return g.KeyID != "" && g.KeySecret != ""
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.BusinessTimezone); err != nil {
		return fmt.Errorf("BUSINESS_TIMEZONE %q: %w", c.BusinessTimezone, err)
	}
	if c.ExpiryGrace < 0 {
		return fmt.Errorf("BOOKING_EXPIRY_GRACE must be >= 0")
	}
	if c.RescheduleWindow < 0 {
		return fmt.Errorf("RESCHEDULE_WINDOW must be >= 0")
	}
	if c.ExpiryInterval < 0 {
		return fmt.Errorf("EXPIRY_INTERVAL must be >= 0")
	}
	if c.TherapistSharePercent <= 0 || c.TherapistSharePercent > 100 {
		return fmt.Errorf("THERAPIST_SHARE_PERCENT must be within 1..100")
	}
	if c.AdvancePercent <= 0 || c.AdvancePercent > 100 {
		return fmt.Errorf("ADVANCE_PERCENT must be within 1..100")
	}
	if c.GatewayConfig.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be > 0")
	}

	if c.IsProdLike() {
		if isEmptyOrDefault(c.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}
	return nil
}

func (c *Config) IsProdLike() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production" || c.AppEnv == "release"
}

// Location is the time zone booking date/time strings are interpreted in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
